// Package storage holds the persistence backends: a namespaced key-value
// repository (memory, Firestore or SQLite) and the Cloud Storage CV archive.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/models"
)

// ErrAlreadyExists is returned by Create when the key is taken
var ErrAlreadyExists = errors.New("already exists")

// KV is a namespaced key-value repository. Get returns an error wrapping
// models.ErrNotFound for missing keys.
type KV interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Create(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// Open returns the backend selected by cfg.StoreBackend
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return NewMemoryKV(), nil
	case "firestore":
		return NewFirestoreKV(ctx, cfg)
	case "sqlite":
		return OpenSQLiteKV(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func notFound(namespace, key string) error {
	return fmt.Errorf("%s/%s: %w", namespace, key, models.ErrNotFound)
}
