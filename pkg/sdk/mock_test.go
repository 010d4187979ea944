package discover

import (
	"context"

	"github.com/kailas-cloud/discover/internal/domain/search/query"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/domain/search/types"
	healthuc "github.com/kailas-cloud/discover/internal/usecase/health"
	searchuc "github.com/kailas-cloud/discover/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn      func(ctx context.Context, st state.State) (searchuc.Outcome, error)
	buildFn       func(st state.State) (query.Document, error)
	countsFn      func(ctx context.Context) (result.Counts, error)
	typesFn       func(ctx context.Context) (types.Hierarchy, error)
	invalidateErr error
	invalidated   int
	mapping       query.Mapping
}

func (m *mockSearchUC) InvalidateCache(_ context.Context) error {
	m.invalidated++
	return m.invalidateErr
}

func (m *mockSearchUC) Search(ctx context.Context, st state.State) (searchuc.Outcome, error) {
	return m.searchFn(ctx, st)
}

func (m *mockSearchUC) Build(st state.State) (query.Document, error) {
	return m.buildFn(st)
}

func (m *mockSearchUC) Counts(ctx context.Context) (result.Counts, error) {
	return m.countsFn(ctx)
}

func (m *mockSearchUC) Types(ctx context.Context) (types.Hierarchy, error) {
	return m.typesFn(ctx)
}

func (m *mockSearchUC) Mapping() query.Mapping { return m.mapping }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- pinger mock ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }
