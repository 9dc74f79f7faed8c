// Package cart implements the shopping cart ledger and its pricing rules.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/storage"
)

// Pricing policy, in cents.
const (
	FreeShippingThreshold domain.Money = 10000
	FlatShipping          domain.Money = 1000
	TaxPercent                         = 10
)

// Ledger is an ordered set of cart lines, one per product. Every mutation
// is written through to the KV store.
type Ledger struct {
	kv     storage.KV
	logger *slog.Logger

	mu    sync.RWMutex
	lines []domain.CartLine
}

// NewLedger creates a ledger and rehydrates it from kv. A missing or
// corrupt stored cart yields an empty ledger.
func NewLedger(ctx context.Context, kv storage.KV, logger *slog.Logger) *Ledger {
	if kv == nil {
		kv = storage.NewMemory()
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{kv: kv, logger: logger}
	l.lines = l.load(ctx)
	return l
}

func (l *Ledger) load(ctx context.Context) []domain.CartLine {
	raw, err := l.kv.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn("read stored cart", "error", err)
		}
		return nil
	}

	var stored []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		l.logger.Warn("stored cart is corrupt, starting empty", "error", err)
		return nil
	}

	// drop invalid lines and merge duplicates so the invariants hold
	// whatever was on disk
	var lines []domain.CartLine
	for _, line := range stored {
		if line.Validate() != nil {
			continue
		}
		if i := indexOf(lines, line.ProductID); i >= 0 {
			if qty, ok := addQuantity(lines[i].Quantity, line.Quantity); ok {
				lines[i].Quantity = qty
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// AddItem adds item to the cart. An existing line for the same product has
// its quantity increased; otherwise the line is appended. A zero quantity
// means one.
func (l *Ledger) AddItem(ctx context.Context, item domain.CartLine) error {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := item.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.copyLines()
	if i := indexOf(next, item.ProductID); i >= 0 {
		qty, ok := addQuantity(next[i].Quantity, item.Quantity)
		if !ok {
			return domain.NewValidationError("quantity", "quantity is too large", domain.ErrInvalidQuantity)
		}
		next[i].Quantity = qty
	} else {
		next = append(next, item)
	}
	return l.commit(ctx, next)
}

// AddProduct adds qty units of p.
func (l *Ledger) AddProduct(ctx context.Context, p domain.Product, qty int) error {
	return l.AddItem(ctx, domain.LineFromProduct(p, qty))
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. Unknown products are ignored.
func (l *Ledger) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := indexOf(l.lines, productID)
	if i < 0 {
		return nil
	}
	next := l.copyLines()
	if qty <= 0 {
		next = append(next[:i], next[i+1:]...)
	} else {
		next[i].Quantity = qty
	}
	return l.commit(ctx, next)
}

// RemoveItem deletes the line for productID, if present.
func (l *Ledger) RemoveItem(ctx context.Context, productID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := indexOf(l.lines, productID)
	if i < 0 {
		return nil
	}
	next := l.copyLines()
	return l.commit(ctx, append(next[:i], next[i+1:]...))
}

// Clear empties the cart.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.commit(ctx, nil)
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []domain.CartLine {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.CartLine(nil), l.lines...)
}

// Line returns the line for productID.
func (l *Ledger) Line(productID string) (domain.CartLine, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := indexOf(l.lines, productID); i >= 0 {
		return l.lines[i], true
	}
	return domain.CartLine{}, false
}

// Len returns the number of lines.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// Count returns the total number of units.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

// Subtotal sums the line totals.
func (l *Ledger) Subtotal() domain.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return subtotal(l.lines)
}

// Totals derives shipping, tax and grand total from the current lines.
func (l *Ledger) Totals() domain.OrderTotals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ComputeTotals(l.lines)
}

// ComputeTotals applies the pricing policy to lines.
func ComputeTotals(lines []domain.CartLine) domain.OrderTotals {
	sub := subtotal(lines)
	shipping := FlatShipping
	if sub > FreeShippingThreshold {
		shipping = 0
	}
	tax := sub.Percent(TaxPercent)
	return domain.OrderTotals{
		Subtotal:   sub,
		Shipping:   shipping,
		Tax:        tax,
		GrandTotal: sub + shipping + tax,
	}
}

func subtotal(lines []domain.CartLine) domain.Money {
	var sum domain.Money
	for _, line := range lines {
		sum += line.Total()
	}
	return sum
}

// commit writes next to the KV store and only then makes it the current
// cart, so a failed write leaves memory and storage in step. Callers hold
// l.mu.
func (l *Ledger) commit(ctx context.Context, next []domain.CartLine) error {
	stored := next
	if stored == nil {
		stored = []domain.CartLine{}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := l.kv.Set(ctx, storage.KeyCart, string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	l.lines = next
	return nil
}

// copyLines returns a copy of the lines safe to mutate. Callers hold l.mu.
func (l *Ledger) copyLines() []domain.CartLine {
	return append([]domain.CartLine(nil), l.lines...)
}

// addQuantity sums two positive quantities, reporting false on overflow.
func addQuantity(a, b int) (int, bool) {
	if b > math.MaxInt-a {
		return 0, false
	}
	return a + b, true
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
