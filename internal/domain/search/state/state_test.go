package state

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/filter"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	if s.Page != 1 || s.Size != DefaultSize || !s.FirstLoad {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("default state invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		size    int
		wantErr bool
	}{
		{"ok", 3, 20, false},
		{"page zero", 0, 10, true},
		{"negative page", -1, 10, true},
		{"size zero", 1, 0, true},
		{"size over max", 1, MaxSize + 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New().WithPage(tc.page)
			s.Size = tc.size
			err := s.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestWithQuery_ResetsPageAfterFirstLoad(t *testing.T) {
	s := New().WithPage(4)
	if got := s.WithQuery("dna").Page; got != 4 {
		t.Errorf("first load should keep page, got %d", got)
	}

	s = s.Loaded()
	next := s.WithQuery("  dna  ")
	if next.Page != 1 {
		t.Errorf("expected page reset, got %d", next.Page)
	}
	if next.Query != "dna" {
		t.Errorf("Query = %q", next.Query)
	}
	if s.Page != 4 {
		t.Error("receiver mutated")
	}
}

func TestToggleFilter(t *testing.T) {
	s := New().Loaded().WithPage(3)
	s = s.ToggleFilter(filter.Subject, "Biology")

	if !s.Filters.Has(filter.Subject, "Biology") {
		t.Error("expected Biology selected")
	}
	if s.Page != 1 {
		t.Errorf("expected page reset, got %d", s.Page)
	}

	s = s.ToggleFilter(filter.Subject, "Biology")
	if s.Filters.Has(filter.Subject, "Biology") {
		t.Error("expected Biology deselected")
	}
}

func TestAddRemoveFilter(t *testing.T) {
	s := New().AddFilter(filter.Tags, "a").AddFilter(filter.Tags, "b")
	if got := s.Filters.Values(filter.Tags); len(got) != 2 || got[0] != "b" {
		t.Errorf("Values() = %v", got)
	}
	s = s.RemoveFilter(filter.Tags, "b")
	if s.Filters.Has(filter.Tags, "b") {
		t.Error("b should be removed")
	}
}

func TestClearFilters(t *testing.T) {
	base := New().Loaded().
		AddFilter(filter.Provider, "OSF").
		AddFilter(filter.Subject, "Biology").
		WithDates(filter.DateRange{Start: "2020-01-01"}).
		WithSort("-date_updated").
		WithPage(5)

	t.Run("provider bound keeps provider", func(t *testing.T) {
		s := base.ClearFilters(true)
		if !s.Filters.Has(filter.Provider, "OSF") {
			t.Error("provider should be kept")
		}
		if s.Filters.Has(filter.Subject, "Biology") {
			t.Error("subject should be cleared")
		}
		if !s.Dates.IsZero() || s.Sort != "" || s.Page != 1 {
			t.Errorf("unexpected state: %+v", s)
		}
	})

	t.Run("unbound clears everything", func(t *testing.T) {
		s := base.ClearFilters(false)
		if !s.Filters.IsEmpty() {
			t.Errorf("expected no filters, got %v", s.Filters.Categories())
		}
	})
}

func TestIncludeAggregations(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"first page", New().Loaded(), true},
		{"first load deep page", New().WithPage(3), true},
		{"second page", New().Loaded().WithPage(2), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.IncludeAggregations(); got != tc.want {
				t.Errorf("IncludeAggregations() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		total, size          int
		pages, clamped, hide int
	}{
		{0, 10, 0, 0, 0},
		{1, 10, 1, 1, 0},
		{10, 10, 1, 1, 0},
		{11, 10, 2, 2, 0},
		{25000, 10, 2500, 1000, 1500},
		{10000, 30, 334, 334, 0},
	}
	for _, tc := range tests {
		if got := TotalPages(tc.total, tc.size); got != tc.pages {
			t.Errorf("TotalPages(%d,%d) = %d, want %d", tc.total, tc.size, got, tc.pages)
		}
		if got := ClampedPages(tc.total, tc.size); got != tc.clamped {
			t.Errorf("ClampedPages(%d,%d) = %d, want %d", tc.total, tc.size, got, tc.clamped)
		}
		if got := HiddenPages(tc.total, tc.size); got != tc.hide {
			t.Errorf("HiddenPages(%d,%d) = %d, want %d", tc.total, tc.size, got, tc.hide)
		}
	}
}

func TestCanLoadPage(t *testing.T) {
	s := New().Loaded().WithPage(2)
	tests := []struct {
		page  int
		total int
		want  bool
	}{
		{2, 100, false},
		{0, 100, false},
		{3, 100, true},
		{11, 100, false},
		{10, 100, true},
	}
	for _, tc := range tests {
		if got := s.CanLoadPage(tc.page, tc.total); got != tc.want {
			t.Errorf("CanLoadPage(%d, %d) = %v, want %v", tc.page, tc.total, got, tc.want)
		}
	}
}
