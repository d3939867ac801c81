package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/lawmind/internal/async"
)

// Processor adapts the uploader to the async queue: each job is uploaded and
// watched until its extraction is terminal.
func (u *Uploader) Processor(onUpdate UpdateFunc) async.Processor {
	return async.ProcessorFunc(func(ctx context.Context, job async.Job) error {
		_, err := u.UploadAndWait(ctx, job.Path, job.Force, onUpdate)
		return err
	})
}

// WatchDirectory uploads every file that appears under cfg.Roots until ctx is
// done, running at most the configured number of uploads at once.
func (u *Uploader) WatchDirectory(ctx context.Context, cfg WatchConfig, force bool, onUpdate UpdateFunc) error {
	events, errs, err := StartWatcher(ctx, cfg, u.log)
	if err != nil {
		return err
	}

	queue := async.NewProcessorQueue(u.Processor(onUpdate), u.log,
		async.WithWorkers(u.workers),
		async.WithBaseContext(ctx),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		queue.Shutdown(shutdownCtx)
	}()

	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := queue.Enqueue(ctx, async.Job{Path: path, Force: force}); err != nil {
				u.log.Warn("watch.enqueue_failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			u.log.Warn("watch.fs_error", "error", err)
		}
	}
}
