package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey names the single persisted entry holding the auth token.
const TokenKey = "lawmind_token"

// TokenStorage persists the token across process runs.
type TokenStorage interface {
	// Load returns the stored token; ok is false when no entry exists.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	// Clear removes the entry. Clearing a missing entry is not an error.
	Clear(ctx context.Context) error
}

// FileStorage keeps the token in a small JSON document, readable only by the owner.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Load(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read token file: %w", err)
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("parse token file %s: %w", f.path, err)
	}
	token, ok := doc[TokenKey]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (f *FileStorage) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.MarshalIndent(map[string]string{TokenKey: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	// write to a sibling temp file and rename so a crash never leaves half a token
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// KV is the slice of the local cache repository the SQL storage needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLStorage keeps the token as a row of the local cache's key/value table.
type SQLStorage struct {
	kv KV
}

func NewSQLStorage(kv KV) *SQLStorage {
	return &SQLStorage{kv: kv}
}

func (s *SQLStorage) Load(ctx context.Context) (string, bool, error) {
	token, ok, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		return "", false, fmt.Errorf("load token: %w", err)
	}
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (s *SQLStorage) Save(ctx context.Context, token string) error {
	if err := s.kv.Put(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *SQLStorage) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// MemoryStorage is a process-local TokenStorage.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
	saves int
}

func NewMemoryStorage(initial string) *MemoryStorage {
	return &MemoryStorage{token: initial}
}

func (m *MemoryStorage) Load(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStorage) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.saves++
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
