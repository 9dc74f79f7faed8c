// Package postgres stores the client side-store in PostgreSQL so several
// kiosks can share one cart and session namespace.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/storefront/internal/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS storefront_kv (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	)
`

// KVStore implements storage.KV using PostgreSQL
type KVStore struct {
	pool      *pgxpool.Pool
	namespace string
}

// Connect opens a pool for databaseURL and ensures the table exists.
func Connect(ctx context.Context, databaseURL, namespace string) (*KVStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewKVStore(pool, namespace)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewKVStore creates a store over an existing pool. Keys are scoped by namespace.
func NewKVStore(pool *pgxpool.Pool, namespace string) *KVStore {
	if namespace == "" {
		namespace = "default"
	}
	return &KVStore{pool: pool, namespace: namespace}
}

// EnsureSchema creates the backing table.
func (s *KVStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create storefront_kv: %w", err)
	}
	return nil
}

// Get returns the value for key
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM storefront_kv WHERE namespace = $1 AND key = $2`

	var value string
	err := s.pool.QueryRow(ctx, query, s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts key
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO storefront_kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, s.namespace, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *KVStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM storefront_kv WHERE namespace = $1 AND key = $2`
	if _, err := s.pool.Exec(ctx, query, s.namespace, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the pool.
func (s *KVStore) Close() {
	s.pool.Close()
}

var _ storage.KV = (*KVStore)(nil)
