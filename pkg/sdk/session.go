package discover

import (
	"context"
	"fmt"

	searchuc "github.com/kailas-cloud/discover/internal/usecase/search"
)

// Session owns the state of one discover page. Only the response to the most
// recent search is applied; older responses fail with ErrSuperseded.
type Session struct {
	inner         *searchuc.Session
	providerBound bool
	obs           *observer
}

// Apply moves the session to reduce(current) and searches it.
func (s *Session) Apply(ctx context.Context, reduce Reducer) (res Result, err error) {
	done := s.obs.track(opApply)
	defer func() { done(err) }()

	res, err = s.inner.Apply(ctx, reduce)
	if err != nil {
		return res, fmt.Errorf("apply: %w", err)
	}
	return res, nil
}

// SetQuery searches for q from page 1.
func (s *Session) SetQuery(ctx context.Context, q string) (Result, error) {
	return s.Apply(ctx, func(st State) State { return st.WithQuery(q) })
}

// ToggleFilter selects or deselects one filter value.
func (s *Session) ToggleFilter(ctx context.Context, c Category, value string) (Result, error) {
	return s.Apply(ctx, func(st State) State { return st.ToggleFilter(c, value) })
}

// ClearFilters drops every selected filter. A provider-bound session keeps its provider.
func (s *Session) ClearFilters(ctx context.Context) (Result, error) {
	return s.Apply(ctx, func(st State) State { return st.ClearFilters(s.providerBound) })
}

// Refresh re-runs the current search.
func (s *Session) Refresh(ctx context.Context) (Result, error) {
	return s.Apply(ctx, func(st State) State { return st })
}

// LoadPage moves to page p of the last result.
func (s *Session) LoadPage(ctx context.Context, p int) (res Result, err error) {
	done := s.obs.track(opLoadPage)
	defer func() { done(err) }()

	res, err = s.inner.LoadPage(ctx, p)
	if err != nil {
		return res, fmt.Errorf("load page: %w", err)
	}
	return res, nil
}

// Snapshot returns the current state and the last applied result.
func (s *Session) Snapshot() (State, Result) {
	return s.inner.Snapshot()
}
