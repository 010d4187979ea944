package search

import (
	"context"

	"github.com/kailas-cloud/discover/internal/domain/search/query"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/domain/search/types"
)

// Backend executes query documents against the search index.
// Failures carry a domain.StatusError so they can be classified.
type Backend interface {
	Search(ctx context.Context, doc query.Document) ([]byte, error)
	Counts(ctx context.Context, doc query.Document) ([]byte, error)
}

// TypeSource reads the raw creative-work type schema.
type TypeSource interface {
	Hierarchy(ctx context.Context) (map[string]any, error)
}

// Cache stores slow-changing reference data. Misses and failures are both reported as !ok.
type Cache interface {
	Counts(ctx context.Context, scope string) (result.Counts, bool)
	PutCounts(ctx context.Context, scope string, c result.Counts)
	Types(ctx context.Context) (types.Hierarchy, bool)
	PutTypes(ctx context.Context, h types.Hierarchy)
	Invalidate(ctx context.Context, scope string) error
}

// Searcher runs one search for a state. Implemented by Service.
type Searcher interface {
	Search(ctx context.Context, st state.State) (Outcome, error)
}
