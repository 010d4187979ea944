package discover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/config"
	"github.com/kailas-cloud/discover/internal/db"
	dbRedis "github.com/kailas-cloud/discover/internal/db/redis"
	"github.com/kailas-cloud/discover/internal/domain/search/query"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/domain/search/types"
	"github.com/kailas-cloud/discover/internal/metrics"
	"github.com/kailas-cloud/discover/internal/repository/cache"
	"github.com/kailas-cloud/discover/internal/transport/elastic"
	"github.com/kailas-cloud/discover/internal/transport/share"
	healthuc "github.com/kailas-cloud/discover/internal/usecase/health"
	searchuc "github.com/kailas-cloud/discover/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTimeout          = 10 * time.Second
	defaultShareBaseURL     = "https://share.osf.io/"
	defaultCachePrefix      = "discover:"
	countsTTL               = 5 * time.Minute
	typesTTL                = 24 * time.Hour
)

// Internal interfaces, swapped for fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, st state.State) (searchuc.Outcome, error)
	Build(st state.State) (query.Document, error)
	Counts(ctx context.Context) (result.Counts, error)
	Types(ctx context.Context) (types.Hierarchy, error)
	InvalidateCache(ctx context.Context) error
	Mapping() query.Mapping
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the discover SDK entry point. It is safe for concurrent use.
type Client struct {
	store     db.Store
	backend   pinger
	searchSvc searchUseCase
	healthSvc healthUseCase
	pageSize  int
	obs       *observer
}

// New creates a Client. When a Redis cache is configured, ctx bounds the
// initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:      defaultTimeout,
		shareBaseURL: defaultShareBaseURL,
		cachePrefix:  defaultCachePrefix,
		pageSize:     state.DefaultSize,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.esURL == "" {
		return nil, errors.New("discover: search backend required (use WithElasticsearch)")
	}
	if cfg.pageSize <= 0 || cfg.pageSize > state.MaxSize {
		return nil, fmt.Errorf("discover: page size must be between 1 and %d, got %d", state.MaxSize, cfg.pageSize)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backend, err := elastic.New(&elastic.Config{
		URL:      cfg.esURL,
		Path:     cfg.esPath,
		Username: cfg.esUsername,
		Password: cfg.esPassword,
		Timeout:  cfg.timeout,
		Logger:   cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	var store db.Store
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:          cfg.redisAddrs,
			Password:       cfg.redisPassword,
			ClientCacheTTL: cfg.redisCacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("discover: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("discover: cache not ready: %w", err)
		}
		store = s
	}

	return wireClient(cfg, backend, store, obs)
}

func wireClient(cfg *clientConfig, backend *elastic.Client, store db.Store, obs *observer) (*Client, error) {
	dc := config.DiscoverConfig{
		Fields:       cfg.fields,
		LockedFields: cfg.lockedFields,
		Locked:       cfg.locked,
		Provider:     cfg.provider,
	}

	// Nil interfaces, not typed nil pointers, for disabled dependencies.
	var typeSource searchuc.TypeSource
	if cfg.shareAPIURL != "" {
		sc, err := share.New(cfg.shareAPIURL, cfg.timeout)
		if err != nil {
			return nil, fmt.Errorf("discover: %w", err)
		}
		typeSource = sc
	}
	var (
		cacheRepo   searchuc.Cache
		cachePinger healthuc.Pinger
	)
	if store != nil {
		logger := cfg.logger
		if logger == nil {
			logger = zap.NewNop()
		}
		cacheRepo = cache.New(store, cache.Config{
			Prefix:    cfg.cachePrefix,
			CountsTTL: countsTTL,
			TypesTTL:  typesTTL,
		}, metrics.CacheTotal, logger)
		cachePinger = store
	}

	searchSvc := searchuc.New(backend, typeSource, cacheRepo, searchuc.Config{
		Mapping:      dc.Mapping(),
		Locked:       dc.LockedFilters(),
		ShareBaseURL: cfg.shareBaseURL,
	})

	return &Client{
		store:     store,
		backend:   backend,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(cfg.timeout,
			healthuc.Component{Name: componentSearch, Pinger: backend, Critical: true},
			healthuc.Component{Name: componentCache, Pinger: cachePinger},
		),
		pageSize: cfg.pageSize,
		obs:      obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks search backend connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	done := c.obs.track(opPing)
	defer func() { done(err) }()

	if err = c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// NewState returns a fresh state using the client's page size.
func (c *Client) NewState() State {
	st := state.New()
	st.Size = c.pageSize
	return st
}

// ProviderBound reports whether every query is scoped to one provider.
func (c *Client) ProviderBound() bool {
	return c.searchSvc.Mapping().ProviderBound()
}

// Search runs one search for st. On a backend failure the returned Result
// still carries the state, an empty page and the failure kind.
func (c *Client) Search(ctx context.Context, st State) (res Result, err error) {
	done := c.obs.track(opSearch)
	defer func() { done(err) }()

	res, err = c.searchSvc.Search(ctx, st)
	if err != nil {
		return res, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// Query returns the backend query document st would run.
func (c *Client) Query(st State) (QueryDocument, error) {
	doc, err := c.searchSvc.Build(st)
	if err != nil {
		return QueryDocument{}, fmt.Errorf("query: %w", err)
	}
	return doc, nil
}

// Counts returns the number of works and distinct sources.
func (c *Client) Counts(ctx context.Context) (res Counts, err error) {
	done := c.obs.track(opCounts)
	defer func() { done(err) }()

	res, err = c.searchSvc.Counts(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return res, nil
}

// Types returns the work-type hierarchy. Requires WithShareAPIURL.
func (c *Client) Types(ctx context.Context) (h TypeHierarchy, err error) {
	done := c.obs.track(opTypes)
	defer func() { done(err) }()

	h, err = c.searchSvc.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}
	return h, nil
}

// InvalidateCache drops cached counts and the type hierarchy so the next
// call refetches them. Without WithRedis it does nothing.
func (c *Client) InvalidateCache(ctx context.Context) (err error) {
	done := c.obs.track(opInvalidate)
	defer func() { done(err) }()

	if err = c.searchSvc.InvalidateCache(ctx); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

// NewSession starts a session from initial.
func (c *Client) NewSession(initial State) *Session {
	return &Session{
		inner:         searchuc.NewSession(c.searchSvc, initial),
		providerBound: c.ProviderBound(),
		obs:           c.obs,
	}
}
