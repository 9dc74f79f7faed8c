// Package navigation tracks the navigable location: a path plus query
// string that deep links can restore.
package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/storage"
)

// DefaultLoginPath is where RedirectToLogin sends the user.
const DefaultLoginPath = "/login"

// MaxHistory bounds the persisted back stack.
const MaxHistory = 20

// Location is a path and its query parameters.
type Location struct {
	Path  string
	Query url.Values
}

// String renders the location as a relative URL.
func (l Location) String() string {
	path := l.Path
	if path == "" {
		path = "/"
	}
	if encoded := l.Query.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func (l Location) clone() Location {
	q := make(url.Values, len(l.Query))
	for k, v := range l.Query {
		q[k] = append([]string(nil), v...)
	}
	return Location{Path: l.Path, Query: q}
}

// ParseLocation parses "/products?category=X". A full URL is accepted and
// reduced to its path and query.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, fmt.Errorf("parse location: %w", err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Location{Path: path, Query: u.Query()}, nil
}

// ChangeFunc observes location changes.
type ChangeFunc func(Location)

// Config holds router settings
type Config struct {
	KV        storage.KV
	LoginPath string
	Logger    *slog.Logger
}

// Router owns the current location and the back stack and persists both.
type Router struct {
	kv        storage.KV
	loginPath string
	logger    *slog.Logger

	mu        sync.Mutex
	current   Location
	history   []Location
	observers []ChangeFunc
}

// NewRouter creates a router positioned at the persisted location, or "/".
func NewRouter(ctx context.Context, cfg Config) *Router {
	kv := cfg.KV
	if kv == nil {
		kv = storage.NewMemory()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	r := &Router{
		kv:        kv,
		loginPath: loginPath,
		logger:    logger,
		current:   Location{Path: "/", Query: url.Values{}},
	}

	raw, err := kv.Get(ctx, storage.KeyLocation)
	switch {
	case err == nil:
		if loc, perr := ParseLocation(raw); perr == nil {
			r.current = loc
		} else {
			logger.Warn("stored location is invalid", "error", perr)
		}
	case !errors.Is(err, storage.ErrNotFound):
		logger.Warn("read stored location", "error", err)
	}
	r.history = loadHistory(ctx, kv, logger)
	return r
}

func loadHistory(ctx context.Context, kv storage.KV, logger *slog.Logger) []Location {
	raw, err := kv.Get(ctx, storage.KeyHistory)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("read stored history", "error", err)
		}
		return nil
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.Warn("stored history is invalid", "error", err)
		return nil
	}
	var history []Location
	for _, entry := range entries {
		if loc, err := ParseLocation(entry); err == nil {
			history = append(history, loc)
		}
	}
	return history
}

// Current returns a copy of the current location.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.clone()
}

// LoginPath returns the login view path.
func (r *Router) LoginPath() string {
	return r.loginPath
}

// OnChange registers fn to run after every location change.
func (r *Router) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Navigate pushes a new location.
func (r *Router) Navigate(ctx context.Context, path string, query url.Values) {
	r.set(ctx, path, query, true)
}

// Replace rewrites the current location without adding history.
func (r *Router) Replace(ctx context.Context, path string, query url.Values) {
	r.set(ctx, path, query, false)
}

// Back returns to the previous location, reporting whether there was one.
func (r *Router) Back(ctx context.Context) bool {
	r.mu.Lock()
	if len(r.history) == 0 {
		r.mu.Unlock()
		return false
	}
	prev := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	r.current = prev
	observers, loc := r.changed(ctx)
	r.mu.Unlock()

	notify(observers, loc)
	return true
}

// RedirectToLogin navigates to the login view unless it is already
// current. It reports whether it navigated.
func (r *Router) RedirectToLogin(ctx context.Context) bool {
	r.mu.Lock()
	if r.current.Path == r.loginPath {
		r.mu.Unlock()
		return false
	}
	r.push()
	r.current = Location{Path: r.loginPath, Query: url.Values{}}
	observers, loc := r.changed(ctx)
	r.mu.Unlock()

	r.logger.Info("redirected to login")
	notify(observers, loc)
	return true
}

func (r *Router) set(ctx context.Context, path string, query url.Values, push bool) {
	if path == "" {
		path = "/"
	}
	next := Location{Path: path, Query: query}.clone()

	r.mu.Lock()
	if push {
		r.push()
	}
	r.current = next
	observers, loc := r.changed(ctx)
	r.mu.Unlock()

	notify(observers, loc)
}

// push saves the current location on the back stack, dropping the oldest
// entry beyond MaxHistory. Callers hold r.mu.
func (r *Router) push() {
	r.history = append(r.history, r.current)
	if len(r.history) > MaxHistory {
		r.history = append([]Location(nil), r.history[len(r.history)-MaxHistory:]...)
	}
}

// changed persists the location and back stack and returns what observers
// need. Callers hold r.mu.
func (r *Router) changed(ctx context.Context) ([]ChangeFunc, Location) {
	if err := r.kv.Set(ctx, storage.KeyLocation, r.current.String()); err != nil {
		r.logger.Warn("persist location", "error", err)
	}
	entries := make([]string, len(r.history))
	for i, loc := range r.history {
		entries[i] = loc.String()
	}
	if data, err := json.Marshal(entries); err == nil {
		if err := r.kv.Set(ctx, storage.KeyHistory, string(data)); err != nil {
			r.logger.Warn("persist history", "error", err)
		}
	}
	return append([]ChangeFunc(nil), r.observers...), r.current.clone()
}

func notify(observers []ChangeFunc, loc Location) {
	for _, fn := range observers {
		fn(loc)
	}
}
