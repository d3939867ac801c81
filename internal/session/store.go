package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/lawmind/internal/common"
)

// Session is a snapshot of the authentication state.
// IsAuthenticated is true exactly when Token is non-empty.
type Session struct {
	Token           string
	IsAuthenticated bool
}

func newSession(token string) Session {
	return Session{Token: token, IsAuthenticated: token != ""}
}

// Store owns the process's single authentication state and its persistence.
// Construct one in main and hand it to whatever needs it.
type Store struct {
	storage TokenStorage
	log     *slog.Logger

	mu      sync.RWMutex
	current Session
}

func NewStore(storage TokenStorage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, log: logger}
}

// Bootstrap reads the persisted token and adopts it as the current state.
// Each call re-reads storage; a read failure leaves the store logged out.
func (s *Store) Bootstrap(ctx context.Context) (Session, error) {
	token, ok, err := s.storage.Load(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.current = Session{}
		s.log.Warn("session.bootstrap.load_error", "error", err)
		return s.current, common.WrapError(err, "bootstrap session")
	}
	if !ok {
		token = ""
	}
	s.current = newSession(token)
	s.log.Debug("session.bootstrap", "authenticated", s.current.IsAuthenticated)
	return s.current, nil
}

// Login persists token and marks the session authenticated.
// Logging in again with the same token only rewrites storage.
func (s *Store) Login(ctx context.Context, token string) error {
	if token == "" {
		return common.NewAppError("INVALID_TOKEN", "token must not be empty", common.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Save(ctx, token); err != nil {
		s.log.Error("session.login.save_error", "error", err)
		return common.WrapError(err, "persist session")
	}
	s.current = newSession(token)
	s.log.Info("session.login")
	return nil
}

// Logout removes the persisted token and clears the session. The in-memory
// state is cleared even when storage fails, so the token stops being sent.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	if err := s.storage.Clear(ctx); err != nil {
		s.log.Error("session.logout.clear_error", "error", err)
		return common.WrapError(err, "clear session")
	}
	s.log.Info("session.logout")
	return nil
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsAuthenticated
}

// RequireAuth returns ErrNotLoggedIn when there is no session.
func (s *Store) RequireAuth() error {
	if !s.IsAuthenticated() {
		return common.NewAppError("NOT_LOGGED_IN", "you are not logged in; run `lawmind login`", common.ErrNotLoggedIn)
	}
	return nil
}
