package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/storefront/internal/config"
	"github.com/felixgeelhaar/storefront/internal/domain"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging logs warnings and above to stderr and everything at level
// to ~/.storefront/logs/storefront.log. The file is nil when it cannot be
// opened.
func setupLogging(level string) (*slog.Logger, *os.File) {
	lvl := parseLogLevel(level)
	stderrLevel := lvl
	if stderrLevel < slog.LevelWarn {
		stderrLevel = slog.LevelWarn
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: stderrLevel}),
	}

	var logFile *os.File
	if dir, err := config.EnsureStorefrontDir(); err == nil {
		path := filepath.Join(dir, "logs", "storefront.log")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logFile = f
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl}))
		}
	}

	logger := slog.New(&multiHandler{handlers: handlers})
	slog.SetDefault(logger)
	return logger, logFile
}

// errorMessage picks the user-facing message of err.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not signed in (run 'storefront login' first)"
	case errors.Is(err, domain.ErrForbidden):
		return "this command requires an admin account"
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) && !reqErr.HasStatus() && reqErr.Message == domain.FallbackMessage && reqErr.Err != nil {
		return "could not reach the storefront service: " + reqErr.Err.Error()
	}
	return domain.MessageOf(err)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
