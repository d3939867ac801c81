package entity

import (
	"encoding/json"
	"time"

	"github.com/joseph-ayodele/lawmind/constants"
)

// ExtractionJob is a server-side OCR task as tracked by the client.
type ExtractionJob struct {
	ID          string                `json:"id"`
	Status      constants.JobStatus   `json:"status"`
	Result      json.RawMessage       `json:"result,omitempty"`
	Attempts    int                   `json:"attempts"`
	FailureKind constants.FailureKind `json:"failure_kind,omitempty"`
	Reason      string                `json:"reason,omitempty"`
	SourcePath  string                `json:"source_path,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (j ExtractionJob) Terminal() bool { return j.Status.Terminal() }

func (j ExtractionJob) TimedOut() bool { return j.FailureKind == constants.FailureTimeout }

// UploadResponse is returned by upload-and-extract.
type UploadResponse struct {
	DocumentID ID     `json:"document_id"`
	Filename   string `json:"filename,omitempty"`
	Message    string `json:"message,omitempty"`
}

// UploadedDocument is the status probe payload for an uploaded document.
type UploadedDocument struct {
	ID               ID              `json:"id"`
	Filename         string          `json:"filename,omitempty"`
	ProcessingStatus string          `json:"processing_status"`
	OCRConfidence    float64         `json:"ocr_confidence,omitempty"`
	ExtractedText    string          `json:"extracted_text,omitempty"`
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
	CreatedAt        Timestamp       `json:"created_at"`
}

// ToJob converts a probe payload into the job shape the poll monitor consumes.
func (d UploadedDocument) ToJob(jobID string) ExtractionJob {
	job := ExtractionJob{
		ID:     jobID,
		Status: constants.ParseJobStatus(d.ProcessingStatus),
	}
	if job.Status == constants.JobStatusCompleted {
		job.Result = d.ExtractedData
	}
	return job
}

// ExtractedData holds the fields the OCR pipeline pulls from legal documents.
type ExtractedData struct {
	PetitionerName string   `json:"petitioner_name,omitempty"`
	RespondentName string   `json:"respondent_name,omitempty"`
	FIRNumber      string   `json:"fir_number,omitempty"`
	Sections       []string `json:"sections,omitempty"`
	Date           string   `json:"date,omitempty"`
	Place          string   `json:"place,omitempty"`
}

// CreateDraftFromUploadResponse is returned when a draft is seeded from an upload.
type CreateDraftFromUploadResponse struct {
	DraftID int64  `json:"draft_id"`
	Message string `json:"message,omitempty"`
}
