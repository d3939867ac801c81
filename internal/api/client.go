package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lawmind/internal/common"
)

// maxErrorBody caps how much of a failed response is read for its detail.
const maxErrorBody = 1 << 20

// TokenSource yields the bearer token for the next request. An empty string
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Config for the API client.
type Config struct {
	BaseURL   string        // default http://localhost:8000
	Timeout   time.Duration // http client timeout
	UserAgent string
}

// BaseClient performs requests against the LawMind API. It is safe for concurrent use.
type BaseClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	tokens    TokenSource
	log       *slog.Logger
}

type Option func(*BaseClient)

// WithHTTPClient replaces the underlying *http.Client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewBaseClient(cfg Config, tokens TokenSource, logger *slog.Logger, opts ...Option) *BaseClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "lawmind-cli"
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &BaseClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		tokens:    tokens,
		log:       logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root every path is resolved against.
func (c *BaseClient) BaseURL() string { return c.baseURL }

func (c *BaseClient) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *BaseClient) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *BaseClient) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *BaseClient) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends body (JSON-encoded when non-nil) to path and decodes a successful
// response into out (when non-nil). Every failure is returned as *APIError.
func (c *BaseClient) Do(ctx context.Context, method, path string, body, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: FallbackMessage, Cause: fmt.Errorf("encode json: %w", err)}
		}
		reader = bytes.NewReader(bs)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, contentType, reader, out)
}

// Upload posts a single file as multipart/form-data under field.
func (c *BaseClient) Upload(ctx context.Context, path, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return &APIError{Message: FallbackMessage, Cause: fmt.Errorf("build multipart: %w", err)}
	}
	if _, err := io.Copy(part, content); err != nil {
		return &APIError{Message: FallbackMessage, Cause: fmt.Errorf("read upload: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return &APIError{Message: FallbackMessage, Cause: fmt.Errorf("close multipart: %w", err)}
	}
	return c.send(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf, out)
}

func (c *BaseClient) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		c.log.Error("api.http.build_request_error", "req_id", reqID, "error", err)
		return newTransportError(fmt.Errorf("build request: %w", err), reqID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	// Read at call time so login/logout apply to the very next request.
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	attrs := []any{"req_id", reqID, "method", method, "path", path}
	if jobID := common.JobIDFromContext(ctx); jobID != "" {
		attrs = append(attrs, "job_id", jobID)
	}
	c.log.Debug("api.http.request", attrs...)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api.http.send_error", append(attrs, "error", err, "elapsed_ms", time.Since(start).Milliseconds())...)
		return newTransportError(err, reqID)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("api.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newResponseError(resp.StatusCode, raw, reqID)
		c.log.Info("api.http.error_response", append(attrs,
			"status", resp.StatusCode,
			"message", apiErr.Message,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)...)
		return apiErr
	}

	c.log.Debug("api.http.response", append(attrs,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)...)

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		c.log.Error("api.http.decode_error", "req_id", reqID, "error", err)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    FallbackMessage,
			RequestID:  reqID,
			Cause:      fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func (c *BaseClient) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// withQuery appends url-encoded query parameters to path.
func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
