package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, KeyToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}

	m.Set(ctx, KeyToken, "abc")
	if got, _ := m.Get(ctx, KeyToken); got != "abc" {
		t.Errorf("Get() = %q, want abc", got)
	}

	m.Delete(ctx, KeyToken)
	m.Delete(ctx, KeyToken)
	if _, err := m.Get(ctx, KeyToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
}
