package redis

import (
	"time"

	"github.com/redis/rueidis"
)

// NewStoreForTest wraps c in a Store. A positive cacheTTL routes reads through DoCache.
func NewStoreForTest(c rueidis.Client, cacheTTL time.Duration) *Store {
	return &Store{client: c, cacheTTL: cacheTTL}
}
