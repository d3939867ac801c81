package api

import (
	"context"

	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// Health checks server liveness.
type Health interface {
	Check(ctx context.Context) (*entity.Health, error)
}

type healthClient struct {
	client *BaseClient
}

func NewHealthClient(client *BaseClient) Health {
	return &healthClient{client: client}
}

func (c *healthClient) Check(ctx context.Context) (*entity.Health, error) {
	var h entity.Health
	if err := c.client.Get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Client bundles the per-resource clients over one BaseClient.
type Client struct {
	Base      *BaseClient
	Auth      Auth
	Drafts    Drafts
	Documents Documents
	Citations Citations
	Health    Health
}

func New(base *BaseClient) *Client {
	return &Client{
		Base:      base,
		Auth:      NewAuthClient(base),
		Drafts:    NewDraftsClient(base),
		Documents: NewDocumentsClient(base),
		Citations: NewCitationsClient(base),
		Health:    NewHealthClient(base),
	}
}
