// Package storefront wires the session, cart, catalog, navigation and
// admin components around one gateway client.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/storefront/internal/admin"
	"github.com/felixgeelhaar/storefront/internal/cart"
	"github.com/felixgeelhaar/storefront/internal/catalog"
	"github.com/felixgeelhaar/storefront/internal/config"
	"github.com/felixgeelhaar/storefront/internal/gateway"
	"github.com/felixgeelhaar/storefront/internal/navigation"
	"github.com/felixgeelhaar/storefront/internal/session"
	"github.com/felixgeelhaar/storefront/internal/storage"
	"github.com/felixgeelhaar/storefront/internal/storage/local"
	"github.com/felixgeelhaar/storefront/internal/storage/postgres"
	"github.com/felixgeelhaar/storefront/internal/storage/sqlite"
)

// App holds all application dependencies
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	KV      storage.KV
	Gateway *gateway.Client
	Session *session.Store
	Cart    *cart.Ledger
	Router  *navigation.Router
	Catalog *catalog.Catalog
	Binder  *catalog.Binder
	Admin   *admin.Service

	closers []func() error
}

// AppConfig holds configuration for application initialization
type AppConfig struct {
	Config *config.Config
	Logger *slog.Logger
	// KV overrides the configured storage backend
	KV storage.KV
	// SkipRestore leaves the persisted token unvalidated
	SkipRestore bool
}

// NewApp creates a new application instance with all dependencies wired
// and, unless disabled, restores the persisted session.
func NewApp(ctx context.Context, cfg AppConfig) (*App, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{Config: cfg.Config, Logger: logger}

	// Initialize durable store
	app.KV = cfg.KV
	if app.KV == nil {
		kv, closer, err := OpenKV(ctx, cfg.Config, logger)
		if err != nil {
			return nil, err
		}
		app.KV = kv
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	}

	// Initialize gateway
	resilience := gateway.DefaultResilienceConfig()
	resilience.RetryReads = cfg.Config.RetryReads
	if cfg.Config.MaxConcurrent > 0 {
		resilience.MaxConcurrent = cfg.Config.MaxConcurrent
	}
	if cfg.Config.RatePerSecond > 0 {
		resilience.RatePerSecond = cfg.Config.RatePerSecond
	} else {
		resilience.EnableRateLimit = false
	}
	app.Gateway = gateway.NewClient(gateway.Config{
		BaseURL:    cfg.Config.APIURL,
		Timeout:    cfg.Config.HTTPTimeout,
		Resilience: resilience,
		Logger:     logger.With("component", "gateway"),
	})
	app.closers = append(app.closers, app.Gateway.Close)

	// Initialize navigation and session
	app.Router = navigation.NewRouter(ctx, navigation.Config{
		KV:        app.KV,
		LoginPath: cfg.Config.LoginPath,
		Logger:    logger.With("component", "navigation"),
	})
	app.Session = session.NewStore(session.Config{
		API:    app.Gateway,
		KV:     app.KV,
		Logger: logger.With("component", "session"),
	})
	app.Gateway.SetTokenSource(app.Session)
	app.Gateway.OnUnauthorized(app.handleUnauthorized)

	// Initialize cart, catalog and admin
	app.Cart = cart.NewLedger(ctx, app.KV, logger.With("component", "cart"))
	app.Catalog = catalog.New(app.Gateway)
	app.Binder = catalog.NewBinder(catalog.BinderConfig{
		Catalog:   app.Catalog,
		Navigator: app.Router,
		Logger:    logger.With("component", "catalog"),
	})
	app.Admin = admin.NewService(app.Gateway, app.Session)
	app.Router.OnChange(app.locationChanged)

	if !cfg.SkipRestore {
		app.Session.Restore(ctx)
	}

	return app, nil
}

// handleUnauthorized clears the session on the first 401 for the current
// token and sends the user to the login view.
func (a *App) handleUnauthorized(ctx context.Context, ev gateway.UnauthorizedEvent) {
	if !a.Session.Expire(ctx, ev.Token) {
		return
	}
	a.Logger.Info("session invalidated by server", "method", ev.Method, "path", ev.Path)
	a.Router.RedirectToLogin(ctx)
}

func (a *App) locationChanged(loc navigation.Location) {
	a.Logger.Debug("location changed", "location", loc.String(), "filters", a.Binder.Query().Encode())
}

// ReturnFromLogin leaves the login view after a successful sign-in: back
// to the page the user was sent away from, or home when there is none.
func (a *App) ReturnFromLogin(ctx context.Context) navigation.Location {
	for a.Router.Current().Path == a.Router.LoginPath() {
		if !a.Router.Back(ctx) {
			break
		}
	}
	if a.Router.Current().Path == a.Router.LoginPath() {
		a.Router.Replace(ctx, "/", nil)
	}
	return a.Router.Current()
}

// OpenKV opens the configured durable store. The returned closer may be nil.
func OpenKV(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.KV, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemory(), nil, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := sqlite.Open(ctx, filepath.Join(cfg.DataDir, "storefront.db"), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewKVStore(db), db.Close, nil

	case config.BackendPostgres:
		kv, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() error { kv.Close(); return nil }, nil

	case config.BackendFile, "":
		kv, err := local.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return kv, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
