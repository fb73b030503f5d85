package storage

import (
	"context"
)

// Store is the key-value contract the persistence layer writes through.
// Values are opaque strings (JSON in practice).
type Store interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Get returns "" and a nil error when the key does not exist
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete of a missing key is not an error
	Delete(ctx context.Context, key string) error
}
