package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// Drafts defines the draft operations
type Drafts interface {
	Generate(ctx context.Context, req entity.DraftRequest) (*entity.Draft, error)
	List(ctx context.Context) ([]entity.Draft, error)
	Get(ctx context.Context, id int64) (*entity.Draft, error)
	Update(ctx context.Context, id int64, content string) (*entity.Draft, error)
	Delete(ctx context.Context, id int64) error
	Edit(ctx context.Context, req entity.EditRequest) (*entity.EditResponse, error)
	QualityScore(ctx context.Context, id int64) (*entity.QualityScore, error)
	Validate(ctx context.Context, documentType string, provided map[string]any) (*entity.ValidationResult, error)
	SuggestSections(ctx context.Context, documentType, caseType, facts string) (*entity.SectionSuggestions, error)
}

type draftsClient struct {
	client *BaseClient
}

func NewDraftsClient(client *BaseClient) Drafts {
	return &draftsClient{client: client}
}

func (c *draftsClient) Generate(ctx context.Context, req entity.DraftRequest) (*entity.Draft, error) {
	if req.Parties == nil {
		req.Parties = map[string]string{}
	}
	if req.Sections == nil {
		req.Sections = []string{}
	}
	var draft entity.Draft
	if err := c.client.Post(ctx, "/api/drafts/generate", req, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *draftsClient) List(ctx context.Context) ([]entity.Draft, error) {
	var drafts []entity.Draft
	if err := c.client.Get(ctx, "/api/drafts/", &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (c *draftsClient) Get(ctx context.Context, id int64) (*entity.Draft, error) {
	var draft entity.Draft
	if err := c.client.Get(ctx, fmt.Sprintf("/api/drafts/%d", id), &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Update replaces the draft body. The server takes content as a query parameter.
func (c *draftsClient) Update(ctx context.Context, id int64, content string) (*entity.Draft, error) {
	path := withQuery(fmt.Sprintf("/api/drafts/%d", id), url.Values{"content": {content}})
	var draft entity.Draft
	if err := c.client.Put(ctx, path, nil, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *draftsClient) Delete(ctx context.Context, id int64) error {
	return c.client.Delete(ctx, fmt.Sprintf("/api/drafts/%d", id))
}

func (c *draftsClient) Edit(ctx context.Context, req entity.EditRequest) (*entity.EditResponse, error) {
	var resp entity.EditResponse
	if err := c.client.Post(ctx, "/api/drafts/edit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *draftsClient) QualityScore(ctx context.Context, id int64) (*entity.QualityScore, error) {
	var score entity.QualityScore
	if err := c.client.Post(ctx, fmt.Sprintf("/api/drafts/%d/quality-score", id), nil, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

func (c *draftsClient) Validate(ctx context.Context, documentType string, provided map[string]any) (*entity.ValidationResult, error) {
	if provided == nil {
		provided = map[string]any{}
	}
	var result entity.ValidationResult
	err := c.client.Post(ctx, "/api/drafts/validate-draft", entity.ValidateDraftRequest{
		DocumentType: documentType,
		ProvidedData: provided,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *draftsClient) SuggestSections(ctx context.Context, documentType, caseType, facts string) (*entity.SectionSuggestions, error) {
	params := url.Values{}
	params.Set("document_type", documentType)
	params.Set("case_type", caseType)
	params.Set("facts", facts)

	var out entity.SectionSuggestions
	if err := c.client.Post(ctx, withQuery("/api/drafts/suggest-sections", params), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
