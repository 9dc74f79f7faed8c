package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/navigation"
)

// ErrSuperseded is returned by a fetch whose result was discarded because a
// newer fetch was issued while it was in flight.
var ErrSuperseded = errors.New("catalog fetch superseded")

// Navigator is the part of the router the binder drives.
type Navigator interface {
	Current() navigation.Location
	Navigate(ctx context.Context, path string, query url.Values)
}

// BinderConfig holds binder dependencies
type BinderConfig struct {
	Catalog   *Catalog
	Navigator Navigator
	Logger    *slog.Logger
}

// Binder keeps the filter set, the navigable URL and the fetched product
// list in step. Each filter change issues exactly one fetch; only the
// result of the most recently issued fetch is committed.
type Binder struct {
	catalog *Catalog
	nav     Navigator
	logger  *slog.Logger

	// navMu orders filter changes with their navigation. It is never held
	// together with mu while the navigator runs, so change observers may
	// read the binder.
	navMu sync.Mutex

	mu       sync.RWMutex
	query    Query
	seq      uint64
	products []domain.Product
	loading  bool
	err      error
}

// NewBinder creates a binder. When the navigator is on the product list
// the filter set starts from its URL, otherwise from the defaults.
func NewBinder(cfg BinderConfig) *Binder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	query := DefaultQuery()
	if cfg.Navigator != nil {
		if loc := cfg.Navigator.Current(); loc.Path == ProductsPath {
			query = ParseQuery(loc.Query)
		}
	}
	return &Binder{
		catalog: cfg.Catalog,
		nav:     cfg.Navigator,
		logger:  logger,
		query:   query,
	}
}

// Query returns the current filter set.
func (b *Binder) Query() Query {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.query
}

// Products returns the last committed product list.
func (b *Binder) Products() []domain.Product {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Product(nil), b.products...)
}

// Loading reports whether the latest fetch is still in flight.
func (b *Binder) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Err returns the error of the last committed fetch.
func (b *Binder) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// ReadFromURL loads the filter set from the current location and fetches.
func (b *Binder) ReadFromURL(ctx context.Context) error {
	q := ParseQuery(b.nav.Current().Query)

	b.mu.Lock()
	b.query = q
	seq := b.begin()
	b.mu.Unlock()

	return b.fetch(ctx, seq, q)
}

// SetFilter changes one filter, rewrites the URL with the full filter set
// and fetches. Invalid keys or values leave everything unchanged.
func (b *Binder) SetFilter(ctx context.Context, key, value string) error {
	b.navMu.Lock()
	b.mu.Lock()
	q, err := b.query.With(key, value)
	if err != nil {
		b.mu.Unlock()
		b.navMu.Unlock()
		return err
	}
	b.query = q
	seq := b.begin()
	b.mu.Unlock()

	b.nav.Navigate(ctx, ProductsPath, q.Values())
	b.navMu.Unlock()

	return b.fetch(ctx, seq, q)
}

// Apply replaces the whole filter set, e.g. from CLI flags.
func (b *Binder) Apply(ctx context.Context, q Query) error {
	if q.Sort == "" {
		q.Sort = SortNewest
	}
	if !q.Sort.Valid() {
		return domain.NewValidationError(KeySort, "unknown sort option", domain.ErrInvalidSort)
	}
	for key, price := range map[string]string{KeyMinPrice: q.MinPrice, KeyMaxPrice: q.MaxPrice} {
		if err := validPrice(price); err != nil {
			return domain.NewValidationError(key, err.Error(), domain.ErrInvalidPrice)
		}
	}

	b.navMu.Lock()
	b.mu.Lock()
	b.query = q
	seq := b.begin()
	b.mu.Unlock()

	b.nav.Navigate(ctx, ProductsPath, q.Values())
	b.navMu.Unlock()

	return b.fetch(ctx, seq, q)
}

// Refresh refetches the current filter set.
func (b *Binder) Refresh(ctx context.Context) error {
	b.mu.Lock()
	q := b.query
	seq := b.begin()
	b.mu.Unlock()

	return b.fetch(ctx, seq, q)
}

// begin issues a new request token. Callers hold b.mu.
func (b *Binder) begin() uint64 {
	b.seq++
	b.loading = true
	return b.seq
}

func (b *Binder) fetch(ctx context.Context, seq uint64, q Query) error {
	products, err := b.catalog.Products(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		b.logger.Debug("discarding stale catalog result", "seq", seq, "latest", b.seq)
		return ErrSuperseded
	}
	b.loading = false
	b.err = err
	if err != nil {
		b.logger.Warn("fetch products", "query", q.Encode(), "error", err)
		return err
	}
	b.products = products
	return nil
}
