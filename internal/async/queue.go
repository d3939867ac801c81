package async

import (
	"context"
	"time"
)

// Job is one file waiting to be uploaded and watched.
type Job struct {
	Path        string
	Force       bool // upload even if the same content was uploaded before
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor handles a single job; the queue logs its error and moves on.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) error

func (f ProcessorFunc) Process(ctx context.Context, job Job) error { return f(ctx, job) }
