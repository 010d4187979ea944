package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/filter"
	"github.com/kailas-cloud/discover/internal/domain/search/query"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/domain/search/types"
	"github.com/kailas-cloud/discover/internal/logger"
	"github.com/kailas-cloud/discover/internal/metrics"
)

// Outcome is the result of one search: the state it ran for, the normalized
// page and, when the search failed, which kind of failure to show.
type Outcome struct {
	State   state.State
	Page    result.Page
	Failure domain.Failure
	Query   query.Document
}

// TotalPages is the number of result pages.
func (o Outcome) TotalPages() int { return state.TotalPages(o.Page.Total, o.State.Size) }

// ClampedPages is the number of pages the backend can actually serve.
func (o Outcome) ClampedPages() int { return state.ClampedPages(o.Page.Total, o.State.Size) }

// HiddenPages is the number of pages beyond the backend window.
func (o Outcome) HiddenPages() int { return state.HiddenPages(o.Page.Total, o.State.Size) }

// Config holds deployment-specific settings.
type Config struct {
	Mapping      query.Mapping
	Locked       filter.Locked
	ShareBaseURL string
}

// Service runs discover searches.
type Service struct {
	builder    *query.Builder
	locked     filter.Locked
	normalizer *result.Normalizer
	backend    Backend
	types      TypeSource
	cache      Cache
	flight     singleflight.Group

	// cacheMu orders cache writes against invalidation; epoch counts invalidations.
	cacheMu sync.RWMutex
	epoch   uint64
}

// sharedFetchTimeout bounds a coalesced counts or types fetch.
const sharedFetchTimeout = 30 * time.Second

// New creates a search service. typeSource and cache can be nil.
func New(backend Backend, typeSource TypeSource, cache Cache, cfg Config) *Service {
	return &Service{
		builder:    query.NewBuilder(cfg.Mapping),
		locked:     cfg.Locked,
		normalizer: result.NewNormalizer(cfg.ShareBaseURL),
		backend:    backend,
		types:      typeSource,
		cache:      cache,
	}
}

// Mapping returns the effective field mapping.
func (s *Service) Mapping() query.Mapping { return s.builder.Mapping() }

// Build derives the query document for st.
func (s *Service) Build(st state.State) (query.Document, error) {
	if err := st.Validate(); err != nil {
		return query.Document{}, err
	}
	if st.Page*st.Size > state.MaxWindow {
		return query.Document{}, fmt.Errorf("%w: page %d of size %d is beyond the first %d results",
			domain.ErrInvalidRequest, st.Page, st.Size, state.MaxWindow)
	}
	doc, err := s.builder.Build(query.Request{
		Filters:             st.Filters,
		Locked:              s.locked,
		Dates:               st.Dates,
		Text:                st.Query,
		Page:                st.Page,
		PageSize:            st.Size,
		Sort:                st.Sort,
		IncludeAggregations: st.IncludeAggregations(),
	})
	if err != nil {
		return query.Document{}, fmt.Errorf("build query: %w", err)
	}
	return doc, nil
}

// Search runs the search described by st.
//
// Invalid states fail with domain.ErrInvalidRequest and no backend call.
// Backend failures never lose the outcome: the returned Outcome carries an
// empty page and the failure kind, and the error wraps ErrQuerySyntax or
// ErrServiceUnavailable. A page made unreachable by the response total is
// re-run once from page 1.
func (s *Service) Search(ctx context.Context, st state.State) (Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	out, err := s.run(ctx, st)
	if err == nil {
		if tp := out.TotalPages(); tp > 0 && tp < st.Page {
			logger.FromContext(ctx).Debug("Requested page beyond results, restarting at page 1",
				zap.Int("page", st.Page), zap.Int("total_pages", tp))
			out, err = s.run(ctx, st.WithPage(1))
		}
	}
	if errors.Is(err, domain.ErrInvalidRequest) {
		return Outcome{State: st, Page: result.Empty()}, err
	}

	s.record(ctx, out, err)
	return out, err
}

func (s *Service) run(ctx context.Context, st state.State) (Outcome, error) {
	doc, err := s.Build(st)
	if err != nil {
		return Outcome{}, err
	}

	loaded := st.Loaded()
	body, err := s.backend.Search(ctx, doc)
	if err != nil {
		return Outcome{
			State:   loaded,
			Page:    result.Empty(),
			Failure: domain.FailureOf(err),
			Query:   doc,
		}, fmt.Errorf("search: %w", err)
	}

	page, err := s.normalizer.NormalizeBytes(body)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
		return Outcome{
			State:   loaded,
			Page:    result.Empty(),
			Failure: domain.FailureUnavailable,
			Query:   doc,
		}, fmt.Errorf("decode response: %w", err)
	}

	return Outcome{State: loaded, Page: page, Query: doc}, nil
}

func (s *Service) record(ctx context.Context, out Outcome, err error) {
	log := logger.FromContext(ctx)
	switch out.Failure {
	case domain.FailureNone:
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	case domain.FailureQuerySyntax:
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeQuerySyntax).Inc()
		log.Info("Search query rejected", zap.String("query", out.Query.Query.Text()), zap.Error(err))
	default:
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		log.Warn("Search backend unavailable", zap.Error(err))
	}
}

// Counts returns the number of works and distinct sources in the index.
// Concurrent misses share one backend request.
func (s *Service) Counts(ctx context.Context) (result.Counts, error) {
	scope := s.builder.Mapping().Provider
	if s.cache != nil {
		if c, ok := s.cache.Counts(ctx, scope); ok {
			return c, nil
		}
	}

	v, err := s.shared(ctx, "counts:"+scope, func(ctx context.Context, epoch uint64) (any, error) {
		body, err := s.backend.Counts(ctx, s.builder.Counts())
		if err != nil {
			return nil, fmt.Errorf("counts: %w", err)
		}
		c, err := result.ParseCounts(body)
		if err != nil {
			return nil, fmt.Errorf("%w: parse counts: %w", domain.ErrServiceUnavailable, err)
		}
		s.storeIfCurrent(epoch, func() { s.cache.PutCounts(ctx, scope, c) })
		return c, nil
	})
	if err != nil {
		return result.Counts{}, err
	}
	return v.(result.Counts), nil
}

// Types returns the work-type hierarchy used by the type facet.
// Concurrent misses share one SHARE API request.
func (s *Service) Types(ctx context.Context) (types.Hierarchy, error) {
	if s.types == nil {
		return nil, fmt.Errorf("type hierarchy source not configured: %w", domain.ErrNotFound)
	}
	if s.cache != nil {
		if h, ok := s.cache.Types(ctx); ok {
			return h, nil
		}
	}

	v, err := s.shared(ctx, "types", func(ctx context.Context, epoch uint64) (any, error) {
		schema, err := s.types.Hierarchy(ctx)
		if err != nil {
			return nil, fmt.Errorf("type hierarchy: %w", err)
		}
		h := types.FromSchema(schema)
		if len(h) > 0 {
			s.storeIfCurrent(epoch, func() { s.cache.PutTypes(ctx, h) })
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(types.Hierarchy), nil
}

// shared runs fetch once for all concurrent callers of key. The fetch is
// detached from the caller that started it and bounded by sharedFetchTimeout;
// each caller still returns as soon as its own ctx is done.
// fetch receives the cache epoch observed before it started.
func (s *Service) shared(ctx context.Context, key string, fetch func(context.Context, uint64) (any, error)) (any, error) {
	ch := s.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return fetch(fctx, s.currentEpoch())
	})
	select {
	case res := <-ch:
		return res.Val, res.Err //nolint:wrapcheck // wrapped inside fetch
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", key, ctx.Err())
	}
}

func (s *Service) currentEpoch() uint64 {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.epoch
}

// storeIfCurrent runs put unless the cache was invalidated after epoch.
func (s *Service) storeIfCurrent(epoch uint64, put func()) {
	if s.cache == nil {
		return
	}
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	if s.epoch != epoch {
		return
	}
	put()
}

// InvalidateCache drops the cached counts of the deployment's scope and the
// type hierarchy. Fetches started before the call still answer their callers
// but no longer write to the cache. Without a cache it does nothing.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	s.cacheMu.Lock()
	s.epoch++
	s.cacheMu.Unlock()

	scope := s.builder.Mapping().Provider
	s.flight.Forget("counts:" + scope)
	s.flight.Forget("types")
	if err := s.cache.Invalidate(ctx, scope); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	logger.FromContext(ctx).Info("Reference data cache invalidated", zap.String("scope", scope))
	return nil
}
