// Package params persists search state in URL query parameters.
//
// Multi-value filters are joined with the literal token "OR". Bookmarked URLs depend
// on that delimiter, so it must not change.
package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/filter"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
)

// Delimiter separates values of one filter category.
const Delimiter = "OR"

// Non-filter parameter names.
const (
	Query = "q"
	Sort  = "sort"
	Start = "start"
	End   = "end"
	Page  = "page"
	Size  = "size"
)

// Names returns every parameter the discover page reflects in the URL.
func Names() []string {
	names := []string{Query, Start, End, Sort, Page}
	for _, c := range filter.Categories() {
		names = append(names, string(c))
	}
	return names
}

// Split decodes a filter parameter into its values.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, Delimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join encodes filter values into one parameter.
func Join(values []string) string {
	return strings.Join(values, Delimiter)
}

// Unique drops repeated values, keeping the first occurrence.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Encode writes s as query parameters. Empty and default values are omitted.
func Encode(s state.State) url.Values {
	v := url.Values{}
	if s.Query != "" {
		v.Set(Query, s.Query)
	}
	for _, c := range s.Filters.Categories() {
		v.Set(string(c), Join(s.Filters.Values(c)))
	}
	if s.Dates.Start != "" {
		v.Set(Start, s.Dates.Start)
	}
	if s.Dates.End != "" {
		v.Set(End, s.Dates.End)
	}
	if s.Sort != "" {
		v.Set(Sort, s.Sort)
	}
	if s.Page > 1 {
		v.Set(Page, strconv.Itoa(s.Page))
	}
	if s.Size > 0 && s.Size != state.DefaultSize {
		v.Set(Size, strconv.Itoa(s.Size))
	}
	return v
}

// Decode reads a State from query parameters. Missing values take the defaults of state.New.
func Decode(v url.Values) (state.State, error) {
	s := state.New()
	s.Query = strings.TrimSpace(v.Get(Query))
	s.Sort = strings.TrimSpace(v.Get(Sort))
	s.Dates = filter.DateRange{Start: v.Get(Start), End: v.Get(End)}

	selected := make(map[filter.Category][]string)
	for _, c := range filter.Categories() {
		raw := v.Get(string(c))
		// "true" is a placeholder some hosts put in the URL for an unset param.
		if raw == "" || raw == "true" {
			continue
		}
		selected[c] = Unique(Split(raw))
	}
	s.Filters = filter.NewSet(selected)

	var err error
	if s.Page, err = intParam(v, Page, 1); err != nil {
		return state.State{}, err
	}
	if s.Size, err = intParam(v, Size, state.DefaultSize); err != nil {
		return state.State{}, err
	}
	if err := s.Validate(); err != nil {
		return state.State{}, err
	}
	return s, nil
}

func intParam(v url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidRequest, name, raw)
	}
	return n, nil
}
