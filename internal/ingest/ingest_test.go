package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
	"github.com/joseph-ayodele/lawmind/internal/poll"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// fakeDocs assigns sequential ids and reports each job pending for `pendingFor` checks.
type fakeDocs struct {
	mu         sync.Mutex
	next       int
	uploads    []string
	checks     map[string]int
	pendingFor int
	final      constants.JobStatus
}

func newFakeDocs(pendingFor int, final constants.JobStatus) *fakeDocs {
	return &fakeDocs{checks: map[string]int{}, pendingFor: pendingFor, final: final}
}

func (f *fakeDocs) UploadAndExtract(_ context.Context, filename string, content io.Reader) (*entity.UploadResponse, error) {
	if _, err := io.ReadAll(content); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.uploads = append(f.uploads, filepath.Base(filename))
	return &entity.UploadResponse{DocumentID: entity.ID(fmt.Sprint(f.next))}, nil
}

func (f *fakeDocs) CheckJob(_ context.Context, jobID string) (entity.ExtractionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks[jobID]++
	if f.checks[jobID] <= f.pendingFor {
		return entity.ExtractionJob{ID: jobID, Status: constants.JobStatusPending}, nil
	}
	return entity.ExtractionJob{ID: jobID, Status: f.final, Result: []byte(`{}`)}, nil
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]entity.ExtractionJob
}

func (m *memJobs) Upsert(_ context.Context, job entity.ExtractionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.jobs[job.ID]; ok && job.SourcePath == "" {
		job.SourcePath = prev.SourcePath
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *memJobs) ListActive(context.Context) ([]entity.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.ExtractionJob
	for _, j := range m.jobs {
		if !j.Terminal() {
			out = append(out, j)
		}
	}
	return out, nil
}

type memIndex struct {
	mu sync.Mutex
	m  map[string]string
}

func (i *memIndex) Get(_ context.Context, k string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.m[k]
	return v, ok, nil
}

func (i *memIndex) Put(_ context.Context, k, v string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.m[k] = v
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func newTestUploader(docs DocumentClient, opts ...UploaderOption) *Uploader {
	monitor := poll.NewMonitor(poll.WithLogger(quiet()))
	base := []UploaderOption{
		WithLogger(quiet()),
		WithPollOptions(poll.Options{Interval: time.Millisecond, MaxAttempts: 5}),
	}
	return NewUploader(docs, monitor, append(base, opts...)...)
}

func TestUploadPathDeduplicates(t *testing.T) {
	dir := t.TempDir()
	docs := newFakeDocs(0, constants.JobStatusCompleted)
	jobs := &memJobs{jobs: map[string]entity.ExtractionJob{}}
	u := newTestUploader(docs, WithJobStore(jobs), WithHashIndex(&memIndex{m: map[string]string{}}))
	ctx := context.Background()

	a := writeFile(t, dir, "fir.pdf", "same bytes")
	b := writeFile(t, dir, "copy.pdf", "same bytes")

	first, err := u.UploadPath(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, "1", first.DocumentID)
	assert.False(t, first.Deduplicated)
	assert.Len(t, first.HashHex, 64)
	assert.Equal(t, a, jobs.jobs["1"].SourcePath)
	assert.Equal(t, constants.JobStatusPending, jobs.jobs["1"].Status)

	second, err := u.UploadPath(ctx, b, false)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, "1", second.DocumentID)

	forced, err := u.UploadPath(ctx, b, true)
	require.NoError(t, err)
	assert.Equal(t, "2", forced.DocumentID)
	assert.Equal(t, []string{"fir.pdf", "copy.pdf"}, docs.uploads)
}

func TestUploadPathRejectsUnsupported(t *testing.T) {
	dir := t.TempDir()
	docs := newFakeDocs(0, constants.JobStatusCompleted)
	u := newTestUploader(docs, WithMaxBytes(4))

	_, err := u.UploadPath(context.Background(), writeFile(t, dir, "a.docx", "x"), false)
	assert.ErrorIs(t, err, common.ErrUnsupportedFile)
	_, err = u.UploadPath(context.Background(), writeFile(t, dir, "big.png", "12345"), false)
	assert.ErrorIs(t, err, common.ErrUnsupportedFile)
	assert.Empty(t, docs.uploads)
}

func TestUploadAndWait(t *testing.T) {
	dir := t.TempDir()
	docs := newFakeDocs(2, constants.JobStatusCompleted)
	jobs := &memJobs{jobs: map[string]entity.ExtractionJob{}}
	u := newTestUploader(docs, WithJobStore(jobs))

	var (
		mu      sync.Mutex
		updates []entity.ExtractionJob
	)
	res, err := u.UploadAndWait(context.Background(), writeFile(t, dir, "order.jpg", "img"), false,
		func(_ string, j entity.ExtractionJob) {
			mu.Lock()
			defer mu.Unlock()
			updates = append(updates, j)
		})
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, res.Job.Status)
	assert.Equal(t, 3, res.Job.Attempts)
	assert.Len(t, updates, 3)
	assert.Equal(t, constants.JobStatusCompleted, jobs.jobs["1"].Status)
	assert.NotEmpty(t, jobs.jobs["1"].SourcePath)
}

func TestUploadAndWaitReportsFailures(t *testing.T) {
	dir := t.TempDir()

	u := newTestUploader(newFakeDocs(0, constants.JobStatusFailed))
	res, err := u.UploadAndWait(context.Background(), writeFile(t, dir, "a.pdf", "a"), false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInternal)
	assert.Equal(t, constants.FailureProcessing, res.Job.FailureKind)

	u = newTestUploader(newFakeDocs(100, constants.JobStatusCompleted))
	res, err = u.UploadAndWait(context.Background(), writeFile(t, dir, "b.pdf", "b"), false, nil)
	require.Error(t, err)
	assert.True(t, res.Job.TimedOut())
	assert.Contains(t, common.UserMessage(err), "timed out after 5 checks")
}

func TestUploadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", "a")
	writeFile(t, dir, "nested/b.PNG", "b")
	writeFile(t, dir, "notes.txt", "skip")
	writeFile(t, dir, ".hidden/c.pdf", "c")

	docs := newFakeDocs(0, constants.JobStatusCompleted)
	u := newTestUploader(docs, WithWorkers(2))

	results, stats, err := u.UploadDirectory(context.Background(), dir, BatchOptions{SkipHidden: true, Wait: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Zero(t, stats.Failed)
	for _, r := range results {
		assert.Equal(t, constants.JobStatusCompleted, r.Job.Status, r.SourcePath)
	}
	sort.Strings(docs.uploads)
	assert.Equal(t, []string{"a.pdf", "b.PNG"}, docs.uploads)

	_, _, err = u.UploadDirectory(context.Background(), " ", BatchOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestUploadFilesCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	u := newTestUploader(newFakeDocs(0, constants.JobStatusCompleted))

	results, stats, err := u.UploadFiles(context.Background(), []string{
		writeFile(t, dir, "ok.pdf", "ok"),
		filepath.Join(dir, "missing.pdf"),
	}, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Empty(t, results[0].Err)
	assert.NotEmpty(t, results[1].Err)
}

func TestResume(t *testing.T) {
	jobs := &memJobs{jobs: map[string]entity.ExtractionJob{
		"7": {ID: "7", Status: constants.JobStatusPending, SourcePath: "/in/a.pdf"},
		"8": {ID: "8", Status: constants.JobStatusCompleted},
	}}
	u := newTestUploader(newFakeDocs(1, constants.JobStatusCompleted), WithJobStore(jobs))

	resumed, err := u.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, resumed, 1)
	assert.Equal(t, "7", resumed[0].ID)
	assert.Equal(t, "/in/a.pdf", resumed[0].SourcePath)
	assert.Equal(t, constants.JobStatusCompleted, jobs.jobs["7"].Status)

	_, err = newTestUploader(newFakeDocs(0, constants.JobStatusCompleted)).Resume(context.Background(), nil)
	assert.Error(t, err)
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.pdf", "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond, SkipHidden: true,
	}, quiet())
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(2 * time.Second):
			t.Fatal("no watcher event")
			return ""
		}
	}
	assert.Equal(t, "existing.pdf", filepath.Base(next()))

	writeFile(t, dir, "ignored.txt", "x")
	writeFile(t, dir, "new.png", "x")
	assert.Equal(t, "new.png", filepath.Base(next()))

	cancel()
	for range events {
	}
}

func TestStartWatcherNeedsRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, quiet())
	assert.Error(t, err)
}

// instantClock arms timers that have already fired, so polls run back to back.
type instantClock struct{}

func (instantClock) Now() time.Time { return time.Unix(1700000000, 0) }

func (instantClock) NewTimer(time.Duration) poll.Timer {
	c := make(chan time.Time, 1)
	c <- time.Unix(1700000000, 0)
	return instantTimer{c: c}
}

type instantTimer struct{ c chan time.Time }

func (t instantTimer) C() <-chan time.Time { return t.c }
func (t instantTimer) Stop() bool          { return false }

func TestWatchDirectoryUploadsNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.pdf", "first")

	docs := newFakeDocs(1, constants.JobStatusCompleted)
	jobs := &memJobs{jobs: map[string]entity.ExtractionJob{}}
	monitor := poll.NewMonitor(poll.WithClock(instantClock{}), poll.WithLogger(quiet()))
	u := NewUploader(docs, monitor,
		WithLogger(quiet()),
		WithJobStore(jobs),
		WithPollOptions(poll.Options{Interval: time.Second, MaxAttempts: 5}),
	)

	done := make(chan string, 8)
	onUpdate := func(path string, job entity.ExtractionJob) {
		if job.Terminal() {
			done <- filepath.Base(path) + ":" + string(job.Status)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- u.WatchDirectory(ctx, WatchConfig{
			Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond, SkipHidden: true,
		}, false, onUpdate)
	}()

	next := func() string {
		select {
		case d := <-done:
			return d
		case <-time.After(2 * time.Second):
			t.Fatal("no extraction finished")
			return ""
		}
	}
	assert.Equal(t, "existing.pdf:"+string(constants.JobStatusCompleted), next())

	writeFile(t, dir, "notes.txt", "skip")
	writeFile(t, dir, "new.png", "second")
	assert.Equal(t, "new.png:"+string(constants.JobStatusCompleted), next())

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}

	docs.mu.Lock()
	assert.Equal(t, []string{"existing.pdf", "new.png"}, docs.uploads)
	assert.Equal(t, 2, docs.checks["1"])
	docs.mu.Unlock()
	jobs.mu.Lock()
	assert.Equal(t, constants.JobStatusCompleted, jobs.jobs["2"].Status)
	jobs.mu.Unlock()
}
