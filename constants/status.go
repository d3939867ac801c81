package constants

import "strings"

// JobStatus is the canonical status of an extraction job as seen by the client.
type JobStatus string

// Stable values (these exact strings are stored in the local cache).
const (
	JobStatusPending   JobStatus = "pending"   // queued or processing server-side
	JobStatusCompleted JobStatus = "completed" // terminal success, result available
	JobStatusFailed    JobStatus = "failed"    // terminal failure (see FailureKind)
)

// Terminal reports whether no further transitions can happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseJobStatus maps the server's processing_status onto JobStatus.
// Anything that is not completed or failed ("processing", "queued", "") is pending.
func ParseJobStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(JobStatusCompleted):
		return JobStatusCompleted
	case string(JobStatusFailed):
		return JobStatusFailed
	default:
		return JobStatusPending
	}
}

// FailureKind tags why a job ended in JobStatusFailed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureProcessing FailureKind = "processing_failed" // server reported failed
	FailureTimeout    FailureKind = "timeout"           // attempts exhausted
	FailureProbe      FailureKind = "probe_error"       // a status probe errored
)

// Reasons reported alongside FailureProcessing and FailureTimeout.
const (
	ReasonProcessingFailed = "processing failed"
	ReasonTimeout          = "timeout"
)
