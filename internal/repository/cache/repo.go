// Package cache keeps slow-changing discover data (index counts and the
// work-type hierarchy) in a key-value store with a TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/db"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/types"
)

// Label values for the "cache" dimension of the cache counter.
const (
	CacheCounts = "counts"
	CacheTypes  = "types"
)

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int, error)
}

// Repo reads and writes cached counts and type hierarchies.
// Cache failures are logged and reported as misses; they never fail a request.
type Repo struct {
	store      store
	prefix     string
	countsTTL  time.Duration
	typesTTL   time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Config holds key prefix and TTLs.
type Config struct {
	Prefix    string
	CountsTTL time.Duration
	TypesTTL  time.Duration
}

// New creates a cache repository.
// cacheTotal is a counter vec with labels "cache" and "result" ("hit"/"miss"), passed explicitly.
func New(s store, cfg Config, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	return &Repo{
		store:      s,
		prefix:     cfg.Prefix,
		countsTTL:  cfg.CountsTTL,
		typesTTL:   cfg.TypesTTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Counts returns cached counts for scope ("" for the whole index).
func (r *Repo) Counts(ctx context.Context, scope string) (result.Counts, bool) {
	var c result.Counts
	ok := r.get(ctx, CacheCounts, r.countsKey(scope), &c)
	return c, ok
}

// PutCounts caches counts for scope.
func (r *Repo) PutCounts(ctx context.Context, scope string, c result.Counts) {
	r.put(ctx, r.countsKey(scope), c, r.countsTTL)
}

// Types returns the cached type hierarchy.
func (r *Repo) Types(ctx context.Context) (types.Hierarchy, bool) {
	var h types.Hierarchy
	ok := r.get(ctx, CacheTypes, r.typesKey(), &h)
	return h, ok
}

// PutTypes caches the type hierarchy.
func (r *Repo) PutTypes(ctx context.Context, h types.Hierarchy) {
	r.put(ctx, r.typesKey(), h, r.typesTTL)
}

// Invalidate drops cached counts for scope and the type hierarchy.
func (r *Repo) Invalidate(ctx context.Context, scope string) error {
	n, err := r.store.Delete(ctx, r.countsKey(scope), r.typesKey())
	if err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	r.logger.Debug("Cache invalidated", zap.String("scope", scope), zap.Int("deleted", n))
	return nil
}

func (r *Repo) countsKey(scope string) string {
	if scope == "" {
		scope = "all"
	}
	return r.prefix + "counts:" + scope
}

func (r *Repo) typesKey() string {
	return r.prefix + "types"
}

func (r *Repo) get(ctx context.Context, cache, key string, dst any) bool {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read cache", zap.String("key", key), zap.Error(err))
		}
		r.inc(cache, "miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.Warn("Failed to parse cached value", zap.String("key", key), zap.Error(err))
		r.inc(cache, "miss")
		return false
	}
	r.inc(cache, "hit")
	return true
}

func (r *Repo) put(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("Failed to encode cache value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.store.Put(ctx, key, data, ttl); err != nil {
		r.logger.Warn("Failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

func (r *Repo) inc(cache, res string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(cache, res).Inc()
	}
}
