package common

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig
	Session SessionConfig
	Cache   CacheConfig
	Poll    PollConfig
	Upload  UploadConfig
}

// APIConfig holds remote API configuration
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects where the auth token is persisted
type SessionConfig struct {
	Store     string // "file" or "sql"
	TokenFile string
}

// CacheConfig holds local cache database configuration
type CacheConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PollConfig holds extraction job polling configuration
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// UploadConfig holds document upload configuration
type UploadConfig struct {
	MaxBytes int64
	Workers  int
}

const (
	TokenStoreFile = "file"
	TokenStoreSQL  = "sql"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	dir := configDir()
	return &Config{
		API: APIConfig{
			BaseURL: getEnv("LAWMIND_API_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("LAWMIND_API_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Store:     getEnv("LAWMIND_TOKEN_STORE", TokenStoreFile),
			TokenFile: getEnv("LAWMIND_TOKEN_FILE", filepath.Join(dir, "session.json")),
		},
		Cache: CacheConfig{
			DSN:             getEnv("LAWMIND_CACHE_DSN", filepath.Join(dir, "cache.db")),
			MaxConns:        getEnvAsInt32("LAWMIND_CACHE_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("LAWMIND_CACHE_MIN_CONNS", 0),
			MaxConnLifetime: getEnvAsDuration("LAWMIND_CACHE_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("LAWMIND_CACHE_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("LAWMIND_CACHE_DIAL_TIMEOUT", 3*time.Second),
		},
		Poll: PollConfig{
			Interval:    getEnvAsDuration("LAWMIND_POLL_INTERVAL", 2*time.Second),
			MaxAttempts: getEnvAsInt("LAWMIND_POLL_MAX_ATTEMPTS", 30),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt64("LAWMIND_UPLOAD_MAX_BYTES", 10*1024*1024),
			Workers:  getEnvAsInt("LAWMIND_UPLOAD_WORKERS", 2),
		},
	}
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "lawmind")
	}
	return ".lawmind"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewAppError("CONFIG_ERROR", "LAWMIND_API_URL must be an absolute URL", ErrInvalidInput)
	}
	if c.Session.Store != TokenStoreFile && c.Session.Store != TokenStoreSQL {
		return NewAppError("CONFIG_ERROR", "LAWMIND_TOKEN_STORE must be 'file' or 'sql'", ErrInvalidInput)
	}
	if c.Session.Store == TokenStoreFile && c.Session.TokenFile == "" {
		return NewAppError("CONFIG_ERROR", "LAWMIND_TOKEN_FILE is required", ErrInvalidInput)
	}
	if c.Poll.Interval <= 0 {
		return NewAppError("CONFIG_ERROR", "LAWMIND_POLL_INTERVAL must be positive", ErrInvalidInput)
	}
	if c.Poll.MaxAttempts <= 0 {
		return NewAppError("CONFIG_ERROR", "LAWMIND_POLL_MAX_ATTEMPTS must be positive", ErrInvalidInput)
	}
	if c.Upload.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "LAWMIND_UPLOAD_MAX_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}
