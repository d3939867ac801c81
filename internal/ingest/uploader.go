package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/api"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
	"github.com/joseph-ayodele/lawmind/internal/poll"
)

// DocumentClient is the part of the documents API the uploader drives.
type DocumentClient interface {
	UploadAndExtract(ctx context.Context, filename string, content io.Reader) (*entity.UploadResponse, error)
	CheckJob(ctx context.Context, jobID string) (entity.ExtractionJob, error)
}

// JobStore records observed job states; satisfied by repository.ExtractionJobRepository.
type JobStore interface {
	Upsert(ctx context.Context, job entity.ExtractionJob) error
	ListActive(ctx context.Context) ([]entity.ExtractionJob, error)
}

// HashIndex remembers which file contents were already uploaded; satisfied by repository.KVRepository.
type HashIndex interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// UpdateFunc is told about every state of a watched upload.
type UpdateFunc func(path string, job entity.ExtractionJob)

// BatchOptions control multi-file uploads.
type BatchOptions struct {
	Force      bool // upload even when the same content was uploaded before
	Wait       bool // poll each job until it is terminal
	SkipHidden bool
	OnUpdate   UpdateFunc
}

// Uploader validates, uploads and optionally watches documents for extraction.
type Uploader struct {
	docs     DocumentClient
	monitor  *poll.Monitor
	jobs     JobStore
	seen     HashIndex
	maxBytes int64
	workers  int
	pollOpts poll.Options
	log      *slog.Logger
	now      func() time.Time
}

type UploaderOption func(*Uploader)

func WithJobStore(s JobStore) UploaderOption { return func(u *Uploader) { u.jobs = s } }

func WithHashIndex(h HashIndex) UploaderOption { return func(u *Uploader) { u.seen = h } }

func WithMaxBytes(n int64) UploaderOption {
	return func(u *Uploader) {
		if n > 0 {
			u.maxBytes = n
		}
	}
}

func WithWorkers(n int) UploaderOption {
	return func(u *Uploader) {
		if n > 0 {
			u.workers = n
		}
	}
}

func WithPollOptions(o poll.Options) UploaderOption { return func(u *Uploader) { u.pollOpts = o } }

func WithLogger(l *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		if l != nil {
			u.log = l
		}
	}
}

func NewUploader(docs DocumentClient, monitor *poll.Monitor, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		docs:     docs,
		monitor:  monitor,
		maxBytes: constants.MaxUploadBytes,
		workers:  2,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func hashKey(hexHash string) string { return "upload:" + hexHash }

// UploadPath validates path and uploads it. With a hash index configured, a file
// whose exact content was uploaded before returns the earlier document id
// unless force is set.
func (u *Uploader) UploadPath(ctx context.Context, path string, force bool) (UploadResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return UploadResult{SourcePath: path}, fmt.Errorf("abs path: %w", err)
	}
	out := UploadResult{SourcePath: abs}
	if _, err := api.ValidateUploadFile(abs, u.maxBytes); err != nil {
		return out, err
	}

	if out.HashHex, err = hashFile(abs); err != nil {
		return out, err
	}
	if u.seen != nil && !force {
		docID, ok, err := u.seen.Get(ctx, hashKey(out.HashHex))
		if err != nil {
			u.log.Warn("upload.dedup_lookup_failed", "path", abs, "error", err)
		} else if ok {
			out.DocumentID = docID
			out.Deduplicated = true
			u.log.Info("upload.deduplicated", "path", abs, "document_id", docID)
			return out, nil
		}
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	start := u.now()
	resp, err := u.docs.UploadAndExtract(ctx, abs, f)
	if err != nil {
		u.log.Error("upload.failed", "path", abs, "error", err)
		return out, err
	}
	out.DocumentID = resp.DocumentID.String()
	out.UploadedAt = u.now().UTC()
	u.log.Info("upload.ok",
		"path", abs,
		"document_id", out.DocumentID,
		"elapsed_ms", u.now().Sub(start).Milliseconds(),
	)

	u.record(ctx, entity.ExtractionJob{
		ID:         out.DocumentID,
		Status:     constants.JobStatusPending,
		SourcePath: abs,
		UpdatedAt:  out.UploadedAt,
	})
	if u.seen != nil {
		if err := u.seen.Put(ctx, hashKey(out.HashHex), out.DocumentID); err != nil {
			u.log.Warn("upload.dedup_store_failed", "path", abs, "error", err)
		}
	}
	return out, nil
}

// Watch polls documentID until extraction settles, recording each state.
func (u *Uploader) Watch(ctx context.Context, documentID string, onUpdate func(entity.ExtractionJob)) *poll.Watch {
	return u.monitor.Watch(ctx, documentID, u.docs.CheckJob, u.pollOpts, func(job entity.ExtractionJob) {
		u.record(ctx, job)
		if onUpdate != nil {
			onUpdate(job)
		}
	})
}

// UploadAndWait uploads path and blocks until its extraction job is terminal.
// A failed or timed-out job is returned alongside an error describing it.
func (u *Uploader) UploadAndWait(ctx context.Context, path string, force bool, onUpdate UpdateFunc) (UploadResult, error) {
	res, err := u.UploadPath(ctx, path, force)
	if err != nil {
		return res, err
	}
	res.Job, err = u.wait(ctx, res.DocumentID, func(job entity.ExtractionJob) {
		if onUpdate != nil {
			onUpdate(res.SourcePath, job)
		}
	})
	return res, err
}

// WaitFor polls an already uploaded document until its job is terminal.
func (u *Uploader) WaitFor(ctx context.Context, documentID string, onUpdate func(entity.ExtractionJob)) (entity.ExtractionJob, error) {
	return u.wait(ctx, documentID, onUpdate)
}

func (u *Uploader) wait(ctx context.Context, documentID string, onUpdate func(entity.ExtractionJob)) (entity.ExtractionJob, error) {
	var last entity.ExtractionJob
	w := u.Watch(ctx, documentID, func(job entity.ExtractionJob) {
		last = job
		if onUpdate != nil {
			onUpdate(job)
		}
	})
	w.Wait()
	if err := ctx.Err(); err != nil {
		return last, err
	}
	return last, JobError(last)
}

// JobError describes a failed job, nil for anything else.
func JobError(job entity.ExtractionJob) error {
	if job.Status != constants.JobStatusFailed {
		return nil
	}
	switch job.FailureKind {
	case constants.FailureTimeout:
		return common.NewAppError("EXTRACTION_TIMEOUT",
			fmt.Sprintf("document %s: extraction timed out after %d checks", job.ID, job.Attempts),
			common.ErrUnavailable)
	case constants.FailureProbe:
		return common.NewAppError("EXTRACTION_CHECK_FAILED",
			fmt.Sprintf("document %s: %s", job.ID, job.Reason), common.ErrUnavailable)
	default:
		return common.NewAppError("EXTRACTION_FAILED",
			fmt.Sprintf("document %s: %s", job.ID, job.Reason), common.ErrInternal)
	}
}

// Resume re-watches every job the store still has as pending and waits for all of them.
func (u *Uploader) Resume(ctx context.Context, onUpdate UpdateFunc) ([]entity.ExtractionJob, error) {
	if u.jobs == nil {
		return nil, errors.New("resume needs a job store")
	}
	active, err := u.jobs.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]entity.ExtractionJob, len(active))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range active {
		g.Go(func() error {
			last, _ := u.wait(gctx, job.ID, func(j entity.ExtractionJob) {
				if onUpdate != nil {
					onUpdate(job.SourcePath, j)
				}
			})
			last.SourcePath = job.SourcePath
			results[i] = last
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

var _ Ingestor = (*Uploader)(nil)

// UploadFiles uploads paths concurrently, at most the configured number at a time.
// Per-file failures land in the results; only ctx cancellation is returned.
func (u *Uploader) UploadFiles(ctx context.Context, paths []string, opts BatchOptions) ([]UploadResult, DirStats, error) {
	results := make([]UploadResult, len(paths))
	var succeeded, deduplicated, failed atomic.Uint32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, p := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			var (
				res UploadResult
				err error
			)
			if opts.Wait {
				res, err = u.UploadAndWait(gctx, p, opts.Force, opts.OnUpdate)
			} else {
				res, err = u.UploadPath(gctx, p, opts.Force)
			}
			if err != nil {
				res.Err = errMessage(err)
				failed.Add(1)
			} else {
				succeeded.Add(1)
				if res.Deduplicated {
					deduplicated.Add(1)
				}
			}
			if res.SourcePath == "" {
				res.SourcePath = p
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	stats := DirStats{
		Scanned:      uint32(len(paths)),
		Matched:      uint32(len(paths)),
		Succeeded:    succeeded.Load(),
		Deduplicated: deduplicated.Load(),
		Failed:       failed.Load(),
	}
	if err == nil {
		err = ctx.Err()
	}
	return results, stats, err
}

// UploadDirectory walks root, uploads every file with an allowed extension
// and returns per-file results plus aggregate stats.
func (u *Uploader) UploadDirectory(ctx context.Context, root string, opts BatchOptions) ([]UploadResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError("INVALID_INPUT", "directory is required", common.ErrInvalidInput)
	}

	var (
		paths   []string
		scanned uint32
		walkErr []UploadResult
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		scanned++
		if err != nil {
			walkErr = append(walkErr, UploadResult{SourcePath: path, Err: err.Error()})
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, DirStats{}, fmt.Errorf("walk: %w", err)
	}

	results, stats, err := u.UploadFiles(ctx, paths, opts)
	stats.Scanned = scanned
	stats.Failed += uint32(len(walkErr))
	return append(results, walkErr...), stats, err
}

// errMessage prefers the user-facing message of API and app errors.
func errMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return common.UserMessage(err)
}

func (u *Uploader) record(ctx context.Context, job entity.ExtractionJob) {
	if u.jobs == nil {
		return
	}
	if err := u.jobs.Upsert(ctx, job); err != nil {
		u.log.Warn("upload.record_failed", "document_id", job.ID, "error", err)
	}
}
