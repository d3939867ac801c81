package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/lawmind/internal/common"
)

// FallbackMessage is reported when a failure carries no decodable detail.
const FallbackMessage = "Request failed"

// DetailKind tags which shape the server's "detail" field had.
type DetailKind int

const (
	DetailAbsent DetailKind = iota
	DetailSingle
	DetailMultiple
)

// FieldError is one entry of a validation error list.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ErrorDetail is the parsed form of {"detail": string | [{field, msg}, ...]}.
type ErrorDetail struct {
	Kind    DetailKind
	Message string
	Fields  []FieldError
}

// rawFieldError also accepts FastAPI's native {"loc": [...], "msg": "..."} entries.
type rawFieldError struct {
	Field string `json:"field"`
	Loc   []any  `json:"loc"`
	Msg   string `json:"msg"`
}

// ParseErrorDetail decodes an error payload. Anything it cannot make sense of is DetailAbsent.
func ParseErrorDetail(body []byte) ErrorDetail {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &payload) != nil {
		return ErrorDetail{Kind: DetailAbsent}
	}
	raw := bytes.TrimSpace(payload.Detail)
	if len(raw) == 0 {
		return ErrorDetail{Kind: DetailAbsent}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return ErrorDetail{Kind: DetailAbsent}
		}
		return ErrorDetail{Kind: DetailSingle, Message: s}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ErrorDetail{Kind: DetailAbsent}
		}
		fields := make([]FieldError, 0, len(items))
		for _, item := range items {
			var fe rawFieldError
			if err := json.Unmarshal(item, &fe); err != nil || fe.Msg == "" {
				continue
			}
			field := fe.Field
			if field == "" && len(fe.Loc) > 0 {
				field = locString(fe.Loc)
			}
			fields = append(fields, FieldError{Field: field, Msg: fe.Msg})
		}
		if len(fields) == 0 {
			return ErrorDetail{Kind: DetailAbsent}
		}
		return ErrorDetail{Kind: DetailMultiple, Fields: fields}
	default:
		return ErrorDetail{Kind: DetailAbsent}
	}
}

func locString(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		switch v := p.(type) {
		case string:
			if v == "body" || v == "query" || v == "path" {
				continue
			}
			parts = append(parts, v)
		case float64:
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return strings.Join(parts, ".")
}

// String is the normalized human-readable message.
func (d ErrorDetail) String() string {
	switch d.Kind {
	case DetailSingle:
		return d.Message
	case DetailMultiple:
		msgs := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			msgs[i] = f.Msg
		}
		return strings.Join(msgs, ", ")
	default:
		return FallbackMessage
	}
}

// NormalizeError turns an error payload into the single message callers display.
func NormalizeError(body []byte) string {
	return ParseErrorDetail(body).String()
}

// APIError is the only error type returned across the client boundary.
// StatusCode is 0 when no response was received.
type APIError struct {
	StatusCode int
	Message    string
	Detail     ErrorDetail
	RequestID  string
	Cause      error
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the transport cause and a sentinel matching the status class.
func (e *APIError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if sentinel := sentinelForStatus(e.StatusCode); sentinel != nil {
		errs = append(errs, sentinel)
	}
	return errs
}

// Transport reports whether the request never produced a response.
func (e *APIError) Transport() bool {
	return e.StatusCode == 0
}

func sentinelForStatus(code int) error {
	switch {
	case code == 0:
		return common.ErrUnavailable
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return common.ErrUnauthorized
	case code == http.StatusNotFound:
		return common.ErrNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return common.ErrValidation
	case code >= 500:
		return common.ErrInternal
	default:
		return nil
	}
}

func newResponseError(status int, body []byte, reqID string) *APIError {
	detail := ParseErrorDetail(body)
	return &APIError{
		StatusCode: status,
		Message:    detail.String(),
		Detail:     detail,
		RequestID:  reqID,
	}
}

func newTransportError(cause error, reqID string) *APIError {
	return &APIError{
		Message:   FallbackMessage,
		Detail:    ErrorDetail{Kind: DetailAbsent},
		RequestID: reqID,
		Cause:     cause,
	}
}

// Message extracts the normalized message from any error returned by this package.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return FallbackMessage
}
