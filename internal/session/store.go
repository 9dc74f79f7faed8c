// Package session owns the authentication token and the current user.
// All state transitions go through Store; token and user always change
// together.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/storage"
)

// API is the subset of the gateway the session needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Config holds session dependencies
type Config struct {
	API    API
	KV     storage.KV
	Logger *slog.Logger
	// Now is used for the local token expiry check (default: time.Now)
	Now func() time.Time
}

// Store is the session state holder
type Store struct {
	api    API
	kv     storage.KV
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	token   string
	user    *domain.User
	loading bool
	lastErr error
	// expired latches after a 401 clears the session so repeated 401s
	// are reported once. Reset by login, register and restore.
	expired bool
	// gen increments on every committed transition.
	gen uint64
}

// NewStore creates an empty, loading session.
func NewStore(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	kv := cfg.KV
	if kv == nil {
		kv = storage.NewMemory()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		api:     cfg.API,
		kv:      kv,
		logger:  logger,
		now:     now,
		loading: true,
	}
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, nil when logged out.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a validated user is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsAdmin reports whether the current user has the admin role.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.IsAdmin()
}

// Loading is true until the startup restore settles.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the error of the most recent failed transition.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Login authenticates with email and password.
func (s *Store) Login(ctx context.Context, email, password string) error {
	var resp domain.AuthResponse
	err := s.api.Post(ctx, "/auth/login", domain.Credentials{Email: email, Password: password}, &resp)
	return s.authenticate(ctx, "login", resp, err)
}

// Register creates an account and logs in. A conflict (duplicate email)
// leaves the session untouched.
func (s *Store) Register(ctx context.Context, reg domain.Registration) error {
	var resp domain.AuthResponse
	err := s.api.Post(ctx, "/auth/register", reg, &resp)
	return s.authenticate(ctx, "register", resp, err)
}

func (s *Store) authenticate(ctx context.Context, op string, resp domain.AuthResponse, err error) error {
	if err == nil && (resp.Token == "" || resp.User == nil) {
		err = &domain.RequestError{Message: "invalid response from server"}
	}
	if err != nil {
		authErr := &domain.AuthError{Message: domain.MessageOf(err), Err: err}
		s.mu.Lock()
		s.lastErr = authErr
		s.mu.Unlock()
		s.logger.Info(op+" failed", "error", authErr.Message)
		return authErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, resp.Token, resp.User)
	s.expired = false
	s.loading = false
	s.logger.Info(op+" succeeded", "user_id", resp.User.ID)
	return nil
}

// Logout clears the session and durable token. Safe when already logged out.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, "", nil)
	s.lastErr = nil
}

// Expire is the 401 side effect. It clears the session and returns true
// only for the first transition after the session was last established.
// A 401 for a token that is no longer current is ignored.
func (s *Store) Expire(ctx context.Context, sentToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sentToken != s.token || s.expired {
		return false
	}
	s.commit(ctx, "", nil)
	s.expired = true
	s.lastErr = domain.ErrTokenExpired
	s.logger.Info("session expired")
	return true
}

// Restore validates the persisted token, if any. Failures are absorbed:
// the session ends up logged out and the durable token is removed. A
// login or logout that completes while the validation is in flight wins.
func (s *Store) Restore(ctx context.Context) {
	s.mu.RLock()
	start := s.gen
	s.mu.RUnlock()

	persisted, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil || strings.TrimSpace(persisted) == "" {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("read persisted token", "error", err)
		}
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return
	}

	if s.tokenExpired(persisted) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == start {
			s.commit(ctx, "", nil)
			s.lastErr = domain.ErrTokenExpired
		}
		s.loading = false
		s.logger.Info("persisted token expired")
		return
	}

	s.mu.Lock()
	if s.gen != start {
		// a login or logout completed while the token was being read
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.token = persisted
	s.expired = false
	s.loading = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	var user domain.User
	err = s.api.Get(ctx, "/users/me", nil, &user)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.gen != gen {
		// superseded
		s.logger.Debug("restore superseded")
		return
	}
	if err != nil || user.ID == "" {
		if err == nil {
			err = &domain.RequestError{Message: "invalid response from server"}
		}
		s.commit(ctx, "", nil)
		s.lastErr = err
		s.logger.Info("restore session failed", "error", domain.MessageOf(err))
		return
	}
	s.user = &user
	s.lastErr = nil
	s.logger.Info("session restored", "user_id", user.ID)
}

// tokenExpired reports whether token is a JWT whose exp claim is past.
// Tokens that are not JWTs are left to the server to judge.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

// commit sets token and user together and mirrors the token to durable
// storage. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, token string, user *domain.User) {
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	s.gen++

	var err error
	if token == "" {
		err = s.kv.Delete(ctx, storage.KeyToken)
	} else {
		err = s.kv.Set(ctx, storage.KeyToken, token)
	}
	if err != nil {
		s.logger.Warn("persist token", "error", err)
	}
}
