package api

import (
	"context"
	"net/url"

	"github.com/joseph-ayodele/lawmind/internal/entity"
)

const defaultCitationLimit = 5

// Citations defines the case-law lookup operations
type Citations interface {
	Search(ctx context.Context, query, caseType string, limit int) (*entity.CitationResponse, error)
	Get(ctx context.Context, ref string) (*entity.Citation, error)
}

type citationsClient struct {
	client *BaseClient
}

func NewCitationsClient(client *BaseClient) Citations {
	return &citationsClient{client: client}
}

func (c *citationsClient) Search(ctx context.Context, query, caseType string, limit int) (*entity.CitationResponse, error) {
	if limit <= 0 {
		limit = defaultCitationLimit
	}
	var resp entity.CitationResponse
	err := c.client.Post(ctx, "/api/citations/search", entity.CitationSearch{
		Query:    query,
		CaseType: caseType,
		Limit:    limit,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *citationsClient) Get(ctx context.Context, ref string) (*entity.Citation, error) {
	var citation entity.Citation
	if err := c.client.Get(ctx, "/api/citations/"+url.PathEscape(ref), &citation); err != nil {
		return nil, err
	}
	return &citation, nil
}
