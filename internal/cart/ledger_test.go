package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/storage"
	"github.com/felixgeelhaar/storefront/internal/storage/local"
)

func line(id string, price float64, qty int) domain.CartLine {
	return domain.CartLine{ProductID: id, Name: "Item " + id, UnitPrice: price, Quantity: qty}
}

func newLedger(t *testing.T) (*Ledger, storage.KV) {
	t.Helper()
	kv := storage.NewMemory()
	return NewLedger(context.Background(), kv, nil), kv
}

func TestLedger_AddItem_MergesSameProduct(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	for _, qty := range []int{1, 3, 2} {
		if err := l.AddItem(ctx, line("p1", 5, qty)); err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}
	}

	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	got, _ := l.Line("p1")
	if got.Quantity != 6 {
		t.Errorf("Quantity = %d, want 6", got.Quantity)
	}
}

func TestLedger_AddItem_DefaultsToOne(t *testing.T) {
	l, _ := newLedger(t)

	l.AddItem(context.Background(), line("p1", 5, 0))

	if got, _ := l.Line("p1"); got.Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", got.Quantity)
	}
}

func TestLedger_AddItem_Validation(t *testing.T) {
	tests := []struct {
		name string
		item domain.CartLine
		want error
	}{
		{"negative quantity", line("p1", 5, -1), domain.ErrInvalidQuantity},
		{"negative price", line("p1", -5, 1), domain.ErrInvalidPrice},
		{"missing id", line("", 5, 1), domain.ErrMissingProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newLedger(t)
			err := l.AddItem(context.Background(), tt.item)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddItem() error = %v, want %v", err, tt.want)
			}
			if l.Len() != 0 {
				t.Error("invalid item was added")
			}
		})
	}
}

func TestLedger_PreservesInsertionOrder(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	l.AddItem(ctx, line("a", 1, 1))
	l.AddItem(ctx, line("b", 1, 1))
	l.AddItem(ctx, line("c", 1, 1))
	l.UpdateQuantity(ctx, "a", 7)
	l.AddItem(ctx, line("b", 1, 2))

	lines := l.Lines()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if lines[i].ProductID != id {
			t.Errorf("lines[%d] = %s, want %s", i, lines[i].ProductID, id)
		}
	}
}

func TestLedger_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		wantLen int
		wantQty int
	}{
		{"positive", 4, 1, 4},
		{"zero removes", 0, 0, 0},
		{"negative removes", -5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newLedger(t)
			ctx := context.Background()
			l.AddItem(ctx, line("p1", 5, 2))

			if err := l.UpdateQuantity(ctx, "p1", tt.qty); err != nil {
				t.Fatalf("UpdateQuantity() error = %v", err)
			}
			if l.Len() != tt.wantLen {
				t.Fatalf("Len() = %d, want %d", l.Len(), tt.wantLen)
			}
			if tt.wantLen == 1 {
				if got, _ := l.Line("p1"); got.Quantity != tt.wantQty {
					t.Errorf("Quantity = %d, want %d", got.Quantity, tt.wantQty)
				}
			}
		})
	}
}

func TestLedger_UnknownProductIsNoop(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	l.AddItem(ctx, line("p1", 5, 2))

	if err := l.UpdateQuantity(ctx, "missing", 3); err != nil {
		t.Errorf("UpdateQuantity() error = %v", err)
	}
	if err := l.RemoveItem(ctx, "missing"); err != nil {
		t.Errorf("RemoveItem() error = %v", err)
	}
	if l.Len() != 1 || l.Count() != 2 {
		t.Errorf("Len() = %d Count() = %d, want 1 and 2", l.Len(), l.Count())
	}
}

func TestLedger_RemoveAndClear(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	l.AddItem(ctx, line("a", 1, 1))
	l.AddItem(ctx, line("b", 1, 1))

	l.RemoveItem(ctx, "a")
	if _, ok := l.Line("a"); ok || l.Len() != 1 {
		t.Error("RemoveItem() did not remove the line")
	}

	l.Clear(ctx)
	if l.Len() != 0 || l.Subtotal() != 0 {
		t.Error("Clear() left lines behind")
	}
}

func TestLedger_Totals(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.CartLine
		want  domain.OrderTotals
	}{
		{
			name:  "free shipping",
			lines: []domain.CartLine{line("p1", 60, 2)},
			want:  domain.OrderTotals{Subtotal: 12000, Shipping: 0, Tax: 1200, GrandTotal: 13200},
		},
		{
			name:  "flat shipping",
			lines: []domain.CartLine{line("p1", 30, 2)},
			want:  domain.OrderTotals{Subtotal: 6000, Shipping: 1000, Tax: 600, GrandTotal: 7600},
		},
		{
			name:  "exactly at threshold pays shipping",
			lines: []domain.CartLine{line("p1", 50, 2)},
			want:  domain.OrderTotals{Subtotal: 10000, Shipping: 1000, Tax: 1000, GrandTotal: 12000},
		},
		{
			name:  "empty",
			lines: nil,
			want:  domain.OrderTotals{Shipping: 1000, GrandTotal: 1000},
		},
		{
			name:  "cents",
			lines: []domain.CartLine{line("p1", 19.99, 3), line("p2", 0.05, 1)},
			want:  domain.OrderTotals{Subtotal: 6002, Shipping: 1000, Tax: 600, GrandTotal: 7602},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newLedger(t)
			for _, item := range tt.lines {
				l.AddItem(context.Background(), item)
			}
			if got := l.Totals(); got != tt.want {
				t.Errorf("Totals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLedger_TotalsIndependentOfOrder(t *testing.T) {
	ctx := context.Background()
	items := []domain.CartLine{line("a", 12.5, 3), line("b", 7.25, 1), line("c", 40, 2)}

	forward, _ := newLedger(t)
	for _, item := range items {
		forward.AddItem(ctx, item)
	}
	reverse, _ := newLedger(t)
	for i := len(items) - 1; i >= 0; i-- {
		reverse.AddItem(ctx, items[i])
	}

	if forward.Totals() != reverse.Totals() {
		t.Errorf("Totals() differ: %+v vs %+v", forward.Totals(), reverse.Totals())
	}
}

func TestLedger_TotalsFollowMutation(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	l.AddItem(ctx, line("p1", 60, 2))

	before := l.Totals()
	l.UpdateQuantity(ctx, "p1", 1)
	after := l.Totals()

	if before.Subtotal != 12000 || after.Subtotal != 6000 {
		t.Errorf("Subtotal before/after = %d/%d", before.Subtotal, after.Subtotal)
	}
	if after.Shipping != FlatShipping {
		t.Errorf("Shipping = %d, want %d", after.Shipping, FlatShipping)
	}
}

func TestLedger_PersistsAndRehydrates(t *testing.T) {
	ctx := context.Background()
	store, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	l := NewLedger(ctx, store, nil)
	l.AddItem(ctx, line("a", 10, 2))
	l.AddItem(ctx, line("b", 3, 1))

	reloaded := NewLedger(ctx, store, nil)
	lines := reloaded.Lines()
	if len(lines) != 2 || lines[0].ProductID != "a" || lines[0].Quantity != 2 {
		t.Errorf("rehydrated lines = %+v", lines)
	}
	if reloaded.Totals() != l.Totals() {
		t.Error("rehydrated totals differ")
	}
}

func TestLedger_CorruptStoredCart(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   int
	}{
		{"not json", "{{{", 0},
		{"wrong shape", `{"productId":"a"}`, 0},
		{"invalid lines dropped", `[{"productId":"a","unitPrice":1,"quantity":0},{"productId":"b","unitPrice":1,"quantity":2}]`, 1},
		{"duplicates merged", `[{"productId":"a","unitPrice":1,"quantity":1},{"productId":"a","unitPrice":1,"quantity":2}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewMemory()
			kv.Set(ctx, storage.KeyCart, tt.stored)

			l := NewLedger(ctx, kv, nil)
			if l.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", l.Len(), tt.want)
			}
		})
	}
}

func TestLedger_Summary(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	if !l.Summary().Empty() {
		t.Error("empty cart summary should be empty")
	}

	l.AddProduct(ctx, domain.Product{ID: "p1", Name: "Lamp", Price: 60}, 2)
	s := l.Summary()

	if s.Count != 2 || len(s.Lines) != 1 {
		t.Errorf("Summary() = %+v", s)
	}
	if s.Totals.GrandTotal.String() != "$132.00" {
		t.Errorf("GrandTotal = %s, want $132.00", s.Totals.GrandTotal)
	}
}

func TestLedger_AddItem_RejectsNonFinitePrice(t *testing.T) {
	l, kv := newLedger(t)
	ctx := context.Background()

	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := l.AddItem(ctx, line("p1", price, 1)); !errors.Is(err, domain.ErrInvalidPrice) {
			t.Errorf("AddItem(%v) error = %v, want ErrInvalidPrice", price, err)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}

	if err := l.AddItem(ctx, line("p2", 5, 1)); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	raw, err := kv.Get(ctx, storage.KeyCart)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(raw, `"productId":"p2"`) {
		t.Errorf("stored cart = %s", raw)
	}
}

func TestLedger_AddItem_QuantityOverflow(t *testing.T) {
	l, kv := newLedger(t)
	ctx := context.Background()

	if err := l.AddItem(ctx, line("p1", 5, 1)); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	err := l.AddItem(ctx, line("p1", 5, math.MaxInt))
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("AddItem(MaxInt) error = %v, want ErrInvalidQuantity", err)
	}

	got, _ := l.Line("p1")
	if got.Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", got.Quantity)
	}
	raw, _ := kv.Get(ctx, storage.KeyCart)
	if !strings.Contains(raw, `"quantity":1`) {
		t.Errorf("stored cart = %s", raw)
	}
}

func TestLedger_RehydrateSkipsOverflowingMerge(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	stored := fmt.Sprintf(`[{"productId":"p1","unitPrice":5,"quantity":2},{"productId":"p1","unitPrice":5,"quantity":%d}]`, math.MaxInt)
	kv.Set(ctx, storage.KeyCart, stored)

	l := NewLedger(ctx, kv, nil)

	got, ok := l.Line("p1")
	if !ok || got.Quantity != 2 {
		t.Errorf("Line(p1) = %+v, %v, want quantity 2", got, ok)
	}
}

// failingKV rejects every write.
type failingKV struct {
	*storage.Memory
}

func (f failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestLedger_FailedWriteLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	mem.Set(ctx, storage.KeyCart, `[{"productId":"p1","unitPrice":5,"quantity":2}]`)
	l := NewLedger(ctx, failingKV{Memory: mem}, nil)

	mutations := map[string]func() error{
		"add":    func() error { return l.AddItem(ctx, line("p2", 5, 1)) },
		"merge":  func() error { return l.AddItem(ctx, line("p1", 5, 1)) },
		"update": func() error { return l.UpdateQuantity(ctx, "p1", 7) },
		"remove": func() error { return l.RemoveItem(ctx, "p1") },
		"clear":  func() error { return l.Clear(ctx) },
	}
	for name, mutate := range mutations {
		if err := mutate(); err == nil {
			t.Errorf("%s: expected write error", name)
		}
		lines := l.Lines()
		if len(lines) != 1 || lines[0].ProductID != "p1" || lines[0].Quantity != 2 {
			t.Errorf("%s: Lines() = %+v, want unchanged", name, lines)
		}
	}
}
