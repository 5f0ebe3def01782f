// Package storage provides the namespaced key-value persistence layer
// used by the response cache. Backends share a small contract so the
// cache can run against device-local SQLite, a shared Redis, or an
// in-memory map in tests.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound indicates the requested key has no stored value.
var ErrKeyNotFound = errors.New("storage: key not found")

// Storage is the persistence contract consumed by the cache layer.
// Values are opaque strings (serialized JSON in practice).
type Storage interface {
	// Get returns the value stored under key.
	// Returns ErrKeyNotFound if no value exists.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the value stored under key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys with the given prefix.
	// Used for diagnostics (size) and bulk invalidation only.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
