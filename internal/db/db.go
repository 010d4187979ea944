// Package db abstracts the expiring key-value store that caches reference data.
package db

import (
	"context"
	"time"
)

// Store is the cache store used by repositories.
type Store interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key. ttl <= 0 keeps the key until it is deleted.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int, error)
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
