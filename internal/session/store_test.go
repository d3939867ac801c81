package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lawmind/internal/common"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	s := NewStore(NewMemoryStorage(""), quietLogger())
	sess, err := s.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{}, sess)
	assert.False(t, s.IsAuthenticated())

	s = NewStore(NewMemoryStorage("tok"), quietLogger())
	sess, err = s.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok", IsAuthenticated: true}, sess)
	assert.Equal(t, "tok", s.Token())
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage("")
	s := NewStore(storage, quietLogger())

	require.NoError(t, s.Login(ctx, "abc"))
	assert.Equal(t, Session{Token: "abc", IsAuthenticated: true}, s.Current())

	// a fresh store over the same storage sees the persisted token
	other := NewStore(storage, quietLogger())
	sess, err := other.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.Token)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, Session{}, s.Current())
	sess, err = other.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, sess.IsAuthenticated)
}

func TestLoginIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage("")
	s := NewStore(storage, quietLogger())

	require.NoError(t, s.Login(ctx, "abc"))
	first := s.Current()
	require.NoError(t, s.Login(ctx, "abc"))
	assert.Equal(t, first, s.Current())
	assert.Equal(t, 2, storage.Saves())

	require.NoError(t, s.Login(ctx, "def"))
	assert.Equal(t, "def", s.Token())
	assert.Equal(t, 3, storage.Saves())
}

func TestLoginRewritesClearedStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage("abc")
	s := NewStore(storage, quietLogger())
	_, err := s.Bootstrap(ctx)
	require.NoError(t, err)

	// another process logged out after this one started
	require.NoError(t, storage.Clear(ctx))

	require.NoError(t, s.Login(ctx, "abc"))
	token, ok, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	s := NewStore(NewMemoryStorage(""), quietLogger())
	err := s.Login(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.False(t, s.IsAuthenticated())
	assert.ErrorIs(t, s.RequireAuth(), common.ErrNotLoggedIn)
}

type failingStorage struct{ MemoryStorage }

func (f *failingStorage) Load(context.Context) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (f *failingStorage) Clear(context.Context) error { return errors.New("disk on fire") }

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&failingStorage{}, quietLogger())

	sess, err := s.Bootstrap(ctx)
	require.Error(t, err)
	assert.False(t, sess.IsAuthenticated)

	require.NoError(t, s.Login(ctx, "abc"))
	require.Error(t, s.Logout(ctx))
	assert.Empty(t, s.Token(), "logout clears memory even when storage fails")
}

func TestInvariantUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage(""), quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Login(ctx, "tok")
				_ = s.Logout(ctx)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sess := s.Current()
				assert.Equal(t, sess.Token != "", sess.IsAuthenticated)
			}
		}()
	}
	wg.Wait()
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStorage(path)

	_, ok, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Save(ctx, "tok-1"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "tok-1", doc[TokenKey])

	token, ok, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx))
	_, ok, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, _, err := NewFileStorage(path).Load(context.Background())
	assert.Error(t, err)
}

type mapKV struct {
	mu sync.Mutex
	m  map[string]string
}

func (k *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *mapKV) Put(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = value
	return nil
}

func (k *mapKV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

func TestSQLStorageUsesTokenKey(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{m: map[string]string{}}
	s := NewStore(NewSQLStorage(kv), quietLogger())

	require.NoError(t, s.Login(ctx, "xyz"))
	assert.Equal(t, "xyz", kv.m[TokenKey])

	require.NoError(t, s.Logout(ctx))
	_, present := kv.m[TokenKey]
	assert.False(t, present)
}
