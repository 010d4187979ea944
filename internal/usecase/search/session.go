package search

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/logger"
	"github.com/kailas-cloud/discover/internal/metrics"
)

// Reducer derives the next state from the current one.
type Reducer func(state.State) state.State

// Session owns the state of one discover page and guarantees that only the
// response to the most recent search is ever applied to it.
//
// Every Apply bumps a generation counter before the search starts. When the
// search returns, its result is kept only if no newer Apply has started in
// the meantime; otherwise Apply returns domain.ErrSuperseded.
type Session struct {
	searcher Searcher

	mu         sync.Mutex
	generation uint64
	state      state.State
	last       Outcome
	hasResult  bool
}

// NewSession creates a session starting from initial.
func NewSession(searcher Searcher, initial state.State) *Session {
	return &Session{searcher: searcher, state: initial}
}

// Apply moves the session to reduce(current) and searches it.
// An invalid next state is rejected without starting a search.
func (s *Session) Apply(ctx context.Context, reduce Reducer) (Outcome, error) {
	s.mu.Lock()
	next := reduce(s.state)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	s.generation++
	gen := s.generation
	s.state = next
	s.mu.Unlock()

	ctx = logger.WithFields(ctx, zap.Uint64("generation", gen))
	out, err := s.searcher.Search(ctx, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		metrics.SearchStaleTotal.Inc()
		logger.FromContext(ctx).Debug("Discarding superseded search result", zap.Uint64("latest", s.generation))
		return Outcome{}, fmt.Errorf("generation %d: %w", gen, domain.ErrSuperseded)
	}
	if out.State.Page > 0 {
		s.state = out.State
	}
	s.last = out
	s.hasResult = true
	return out, err
}

// Refresh re-runs the current search. This is the user-initiated retry after a failure.
func (s *Session) Refresh(ctx context.Context) (Outcome, error) {
	return s.Apply(ctx, func(st state.State) state.State { return st })
}

// LoadPage moves to page p. The page must differ from the current one and
// lie within the pages the last result can serve.
func (s *Session) LoadPage(ctx context.Context, p int) (Outcome, error) {
	s.mu.Lock()
	cur, last, ok := s.state, s.last, s.hasResult
	s.mu.Unlock()

	if !ok || !cur.CanLoadPage(p, last.Page.Total) || p > last.ClampedPages() {
		return Outcome{}, fmt.Errorf("%w: cannot load page %d", domain.ErrInvalidRequest, p)
	}
	return s.Apply(ctx, func(st state.State) state.State { return st.WithPage(p) })
}

// Snapshot returns the current state and the last applied outcome.
func (s *Session) Snapshot() (state.State, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.last
}

// Generation returns the number of searches started so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
