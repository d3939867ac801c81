package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
	"github.com/joseph-ayodele/lawmind/internal/session"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{DSN: ":memory:"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrations are repeatable")
	return db
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	kv := NewKVRepository(openTestDB(t), nil)

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Put(ctx, "k", "v1"))
	require.NoError(t, kv.Put(ctx, "k", "v2"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionOverSQLStorage(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	storage := session.NewSQLStorage(NewKVRepository(db, nil))

	s := session.NewStore(storage, nil)
	require.NoError(t, s.Login(ctx, "tok-sql"))

	fresh := session.NewStore(storage, nil)
	sess, err := fresh.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Session{Token: "tok-sql", IsAuthenticated: true}, sess)

	require.NoError(t, fresh.Logout(ctx))
	sess, err = s.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, sess.IsAuthenticated)
}

func TestExtractionJobRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionJobRepository(openTestDB(t), nil)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, entity.ExtractionJob{
		ID: "1", Status: constants.JobStatusPending, SourcePath: "/in/fir.pdf", UpdatedAt: now,
	}))
	require.NoError(t, repo.Upsert(ctx, entity.ExtractionJob{
		ID: "2", Status: constants.JobStatusPending, UpdatedAt: now.Add(time.Second),
	}))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "1", active[0].ID)

	require.NoError(t, repo.Upsert(ctx, entity.ExtractionJob{
		ID: "1", Status: constants.JobStatusCompleted, Attempts: 3,
		Result: []byte(`{"fir_number":"9"}`), UpdatedAt: now.Add(2 * time.Second),
	}))

	job, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.Attempts)
	assert.Equal(t, "/in/fir.pdf", job.SourcePath, "source path survives updates")
	assert.JSONEq(t, `{"fir_number":"9"}`, string(job.Result))
	assert.True(t, now.Add(2*time.Second).Equal(job.UpdatedAt))

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "2", active[0].ID)

	all, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "1", all[0].ID)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Upsert(ctx, entity.ExtractionJob{}), common.ErrInvalidInput)
}

func TestDraftRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(openTestDB(t), nil)
	older := entity.Timestamp{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := entity.Timestamp{Time: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, repo.UpsertMany(ctx, nil))
	require.NoError(t, repo.UpsertMany(ctx, []entity.Draft{
		{ID: 1, Title: "Bail", DocumentType: "bail_application", CreatedAt: older},
		{ID: 2, Title: "Notice", DocumentType: "legal_notice", CreatedAt: newer,
			Citations: []map[string]string{{"citation": "AIR 1978 SC 597"}}},
	}))
	require.NoError(t, repo.UpsertMany(ctx, []entity.Draft{{ID: 1, Title: "Bail (rev)", CreatedAt: older}}))

	drafts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, int64(2), drafts[0].ID)
	assert.Equal(t, "AIR 1978 SC 597", drafts[0].Citations[0]["citation"])
	assert.Equal(t, "Bail (rev)", drafts[1].Title)
	assert.True(t, older.Equal(drafts[1].CreatedAt.Time))
}

func TestOpenSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	db, err := Open(ctx, Config{DSN: path}, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite3", db.Dialect())
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.HealthCheck(ctx, time.Second))
	assert.FileExists(t, path)
}
