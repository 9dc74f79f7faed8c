package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/storefront/internal/storage"
)

func TestKVStore_Integration(t *testing.T) {
	databaseURL := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Connect(ctx, databaseURL, "test-"+uuid.NewString())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer store.Close()

	if _, err := store.Get(ctx, storage.KeyCart); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, storage.KeyCart, `[]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, storage.KeyCart)
	if err != nil || got != `[]` {
		t.Fatalf("Get() = %q, %v", got, err)
	}

	if err := store.Delete(ctx, storage.KeyCart); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, storage.KeyCart); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestNewKVStore_DefaultNamespace(t *testing.T) {
	store := NewKVStore(nil, "")
	if store.namespace != "default" {
		t.Errorf("namespace = %q, want default", store.namespace)
	}
}
