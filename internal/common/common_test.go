package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"LAWMIND_API_URL", "LAWMIND_API_TIMEOUT", "LAWMIND_TOKEN_STORE",
		"LAWMIND_POLL_INTERVAL", "LAWMIND_POLL_MAX_ATTEMPTS", "LAWMIND_UPLOAD_MAX_BYTES",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, TokenStoreFile, cfg.Session.Store)
	assert.NotEmpty(t, cfg.Session.TokenFile)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 30, cfg.Poll.MaxAttempts)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LAWMIND_API_URL", "https://api.lawmind.test")
	t.Setenv("LAWMIND_POLL_INTERVAL", "500ms")
	t.Setenv("LAWMIND_POLL_MAX_ATTEMPTS", "7")
	t.Setenv("LAWMIND_TOKEN_STORE", "sql")
	t.Setenv("LAWMIND_API_TIMEOUT", "not-a-duration")

	cfg := LoadConfig()
	assert.Equal(t, "https://api.lawmind.test", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 7, cfg.Poll.MaxAttempts)
	assert.Equal(t, TokenStoreSQL, cfg.Session.Store)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout, "unparsable values fall back to the default")
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.API.BaseURL = "localhost"
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg = LoadConfig()
	cfg.Session.Store = "redis"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg = LoadConfig()
	cfg.Poll.MaxAttempts = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("email", "not-an-email", Required, Email).
		Field("full_name", "  ", Required).
		Field("password", "short", Required, MinLength(8)).
		Field("tone", "formal", OneOf([]string{"formal", "technical"})).
		Check(false, "confirm_password", "does not match")

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 4)
	assert.Equal(t,
		"email must be a valid email address, full_name is required, password must be at least 8 characters, confirm_password does not match",
		v.ErrorMessage())

	err := ValidateAndReturnError(v)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, v.ErrorMessage(), UserMessage(err))

	assert.NoError(t, ValidateAndReturnError(NewValidator().Field("email", "a@b.co", Required, Email)))
}

func TestAppError(t *testing.T) {
	err := NewAppError("NOT_FOUND", "draft 7 not found", ErrNotFound)
	assert.Equal(t, "NOT_FOUND: draft 7 not found: resource not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, WrapError(nil, "ignored"))
	assert.EqualError(t, WrapError(errors.New("boom"), "load"), "load: boom")
}

func TestContextValues(t *testing.T) {
	ctx := WithJobID(WithRequestID(context.Background(), "req-1"), "doc-9")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "doc-9", JobIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
