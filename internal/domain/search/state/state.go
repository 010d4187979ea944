package state

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/filter"
)

// Pagination limits.
const (
	DefaultSize = 10
	MaxSize     = 100
	// MaxWindow is the deepest result offset the backend will page to.
	MaxWindow = 10000
)

// State is the complete, immutable description of one search.
// Reducers return a new State and never modify the receiver.
type State struct {
	Query     string
	Filters   filter.Set
	Dates     filter.DateRange
	Sort      string
	Page      int
	Size      int
	FirstLoad bool
}

// New returns the state of a fresh discover page.
func New() State {
	return State{
		Filters:   filter.NewSet(nil),
		Page:      1,
		Size:      DefaultSize,
		FirstLoad: true,
	}
}

// Validate checks pagination bounds.
func (s State) Validate() error {
	if s.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrInvalidRequest, s.Page)
	}
	if s.Size <= 0 || s.Size > MaxSize {
		return fmt.Errorf("%w: size must be between 1 and %d, got %d", domain.ErrInvalidRequest, MaxSize, s.Size)
	}
	return nil
}

// resetPage applies the "new search" rule: back to page 1 unless this is the first load.
func (s State) resetPage() State {
	if !s.FirstLoad {
		s.Page = 1
	}
	return s
}

// WithQuery sets the free-text query and starts a new search.
func (s State) WithQuery(q string) State {
	s.Query = strings.TrimSpace(q)
	return s.resetPage()
}

// WithFilters replaces the whole filter set and starts a new search.
func (s State) WithFilters(f filter.Set) State {
	s.Filters = f
	return s.resetPage()
}

// ToggleFilter selects or deselects value in c.
func (s State) ToggleFilter(c filter.Category, value string) State {
	return s.WithFilters(s.Filters.Toggle(c, value))
}

// AddFilter selects value in c, placing it first.
func (s State) AddFilter(c filter.Category, value string) State {
	return s.WithFilters(s.Filters.Add(c, value))
}

// RemoveFilter deselects value in c.
func (s State) RemoveFilter(c filter.Category, value string) State {
	return s.WithFilters(s.Filters.Remove(c, value))
}

// WithDates sets the date range and starts a new search.
func (s State) WithDates(d filter.DateRange) State {
	s.Dates = d
	return s.resetPage()
}

// WithSort sets the sort key ("-field" for descending, "" for relevance).
func (s State) WithSort(sort string) State {
	s.Sort = strings.TrimSpace(sort)
	return s.resetPage()
}

// ClearFilters drops filters, dates and sort. When the deployment is bound to a
// single provider the provider selection survives.
func (s State) ClearFilters(providerBound bool) State {
	if providerBound {
		s.Filters = s.Filters.Clear(filter.Provider)
	} else {
		s.Filters = s.Filters.Clear()
	}
	s.Dates = filter.DateRange{}
	s.Sort = ""
	return s.resetPage()
}

// WithPage moves to page p without resetting anything else.
func (s State) WithPage(p int) State {
	s.Page = p
	return s
}

// Loaded marks the first search as complete.
func (s State) Loaded() State {
	s.FirstLoad = false
	return s
}

// IncludeAggregations reports whether the query should request facet aggregations:
// only on the first page or the very first load.
func (s State) IncludeAggregations() bool {
	return s.Page == 1 || s.FirstLoad
}

// CanLoadPage reports whether p is a valid page change given total results.
func (s State) CanLoadPage(p, total int) bool {
	return p != s.Page && p >= 1 && p <= TotalPages(total, s.Size)
}

// TotalPages is the number of pages needed for total results.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampedPages is TotalPages limited to what the backend window can serve.
func ClampedPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	maxPages := (MaxWindow + size - 1) / size
	return min(TotalPages(total, size), maxPages)
}

// HiddenPages is the number of pages beyond the backend window.
func HiddenPages(total, size int) int {
	return TotalPages(total, size) - ClampedPages(total, size)
}
