package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// UploadResult is the per-file upload outcome.
type UploadResult struct {
	SourcePath   string
	DocumentID   string
	Deduplicated bool
	HashHex      string
	UploadedAt   time.Time
	Job          entity.ExtractionJob // last observed state; zero unless watched
	Err          string
}

// DirStats summarizes a directory upload.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the CLI depends on.
type Ingestor interface {
	// UploadPath validates and uploads a single file.
	UploadPath(ctx context.Context, path string, force bool) (UploadResult, error)
	// UploadFiles uploads the given files.
	UploadFiles(ctx context.Context, paths []string, opts BatchOptions) ([]UploadResult, DirStats, error)
	// UploadDirectory uploads all matching files under root.
	UploadDirectory(ctx context.Context, root string, opts BatchOptions) ([]UploadResult, DirStats, error)
}
