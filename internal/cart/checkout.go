package cart

import "github.com/felixgeelhaar/storefront/internal/domain"

// Summary is the checkout view of the cart.
type Summary struct {
	Lines  []domain.CartLine  `json:"lines"`
	Count  int                `json:"count"`
	Totals domain.OrderTotals `json:"totals"`
}

// Empty reports whether there is nothing to check out.
func (s Summary) Empty() bool {
	return len(s.Lines) == 0
}

// Summary snapshots lines and totals under one lock.
func (l *Ledger) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lines := append([]domain.CartLine(nil), l.lines...)
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return Summary{
		Lines:  lines,
		Count:  count,
		Totals: ComputeTotals(lines),
	}
}
