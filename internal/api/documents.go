package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// Documents defines the upload, extraction and export operations
type Documents interface {
	UploadAndExtract(ctx context.Context, filename string, content io.Reader) (*entity.UploadResponse, error)
	GetUploaded(ctx context.Context, documentID string) (*entity.UploadedDocument, error)
	CreateDraftFromUpload(ctx context.Context, documentID string) (*entity.CreateDraftFromUploadResponse, error)
	Export(ctx context.Context, req entity.ExportRequest) (*entity.ExportResponse, error)
	ListExports(ctx context.Context) ([]entity.ExportResponse, error)
	// CheckJob is a single status probe shaped for the poll monitor.
	CheckJob(ctx context.Context, jobID string) (entity.ExtractionJob, error)
}

type documentsClient struct {
	client *BaseClient
}

func NewDocumentsClient(client *BaseClient) Documents {
	return &documentsClient{client: client}
}

func (c *documentsClient) UploadAndExtract(ctx context.Context, filename string, content io.Reader) (*entity.UploadResponse, error) {
	var resp entity.UploadResponse
	if err := c.client.Upload(ctx, "/api/documents/upload-and-extract", "file", filepath.Base(filename), content, &resp); err != nil {
		return nil, err
	}
	if resp.DocumentID == "" {
		return nil, &APIError{StatusCode: 200, Message: "upload response carried no document id"}
	}
	return &resp, nil
}

func (c *documentsClient) GetUploaded(ctx context.Context, documentID string) (*entity.UploadedDocument, error) {
	var doc entity.UploadedDocument
	if err := c.client.Get(ctx, "/api/documents/uploaded/"+url.PathEscape(documentID), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *documentsClient) CheckJob(ctx context.Context, jobID string) (entity.ExtractionJob, error) {
	doc, err := c.GetUploaded(ctx, jobID)
	if err != nil {
		return entity.ExtractionJob{}, err
	}
	return doc.ToJob(jobID), nil
}

func (c *documentsClient) CreateDraftFromUpload(ctx context.Context, documentID string) (*entity.CreateDraftFromUploadResponse, error) {
	var resp entity.CreateDraftFromUploadResponse
	path := "/api/documents/create-draft-from-upload/" + url.PathEscape(documentID)
	if err := c.client.Post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *documentsClient) Export(ctx context.Context, req entity.ExportRequest) (*entity.ExportResponse, error) {
	var resp entity.ExportResponse
	if err := c.client.Post(ctx, "/api/documents/export", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *documentsClient) ListExports(ctx context.Context) ([]entity.ExportResponse, error) {
	var out []entity.ExportResponse
	if err := c.client.Get(ctx, "/api/documents/exports", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateUploadFile checks extension and size of a local file before it is sent.
// maxBytes <= 0 falls back to constants.MaxUploadBytes.
func ValidateUploadFile(path string, maxBytes int64) (os.FileInfo, error) {
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return nil, common.NewAppError("UNSUPPORTED_FILE",
			fmt.Sprintf("%s: only PDF, JPG and PNG files are supported", filepath.Base(path)),
			common.ErrUnsupportedFile)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("%s is a directory", path), common.ErrUnsupportedFile)
	}
	if info.Size() > maxBytes {
		return nil, common.NewAppError("UNSUPPORTED_FILE",
			fmt.Sprintf("%s: file size must be less than %d MB", filepath.Base(path), maxBytes/(1024*1024)),
			common.ErrUnsupportedFile)
	}
	return info, nil
}
