package filter

import (
	"slices"
	"sort"
)

// Category is a filterable search dimension, named after its URL parameter.
type Category string

// Filter categories.
const (
	Provider      Category = "provider"
	Subject       Category = "subject"
	Type          Category = "type"
	Tags          Category = "tags"
	Sources       Category = "sources"
	Publishers    Category = "publishers"
	Funders       Category = "funders"
	Language      Category = "language"
	Contributors  Category = "contributors"
	Organizations Category = "organizations"
	Institutions  Category = "institutions"
)

var categories = []Category{
	Provider, Subject, Type, Tags, Sources, Publishers,
	Funders, Language, Contributors, Organizations, Institutions,
}

// Categories returns all categories in canonical order.
func Categories() []Category {
	return slices.Clone(categories)
}

// IsValid checks if the category is known.
func (c Category) IsValid() bool {
	return slices.Contains(categories, c)
}

// Set maps categories to ordered values. Values within a category are OR-combined,
// categories are AND-combined. A Set is never modified in place.
type Set struct {
	values map[Category][]string
}

// NewSet creates a Set from a map, dropping empty categories.
func NewSet(m map[Category][]string) Set {
	s := Set{values: make(map[Category][]string, len(m))}
	for c, v := range m {
		if len(v) > 0 {
			s.values[c] = slices.Clone(v)
		}
	}
	return s
}

func (s Set) clone() Set {
	out := Set{values: make(map[Category][]string, len(s.values)+1)}
	for c, v := range s.values {
		out.values[c] = slices.Clone(v)
	}
	return out
}

// With returns a copy of s with the values of c replaced.
func (s Set) With(c Category, values ...string) Set {
	out := s.clone()
	if len(values) == 0 {
		delete(out.values, c)
		return out
	}
	out.values[c] = slices.Clone(values)
	return out
}

// Add returns a copy of s with value placed first in c, de-duplicated.
func (s Set) Add(c Category, value string) Set {
	current := s.values[c]
	next := make([]string, 0, len(current)+1)
	next = append(next, value)
	for _, v := range current {
		if v != value {
			next = append(next, v)
		}
	}
	return s.With(c, next...)
}

// Remove returns a copy of s without value in c.
func (s Set) Remove(c Category, value string) Set {
	current := s.values[c]
	next := make([]string, 0, len(current))
	for _, v := range current {
		if v != value {
			next = append(next, v)
		}
	}
	return s.With(c, next...)
}

// Toggle appends value to c when absent and removes it otherwise.
func (s Set) Toggle(c Category, value string) Set {
	if s.Has(c, value) {
		return s.Remove(c, value)
	}
	return s.With(c, append(slices.Clone(s.values[c]), value)...)
}

// Clear returns a Set holding only the categories in keep.
func (s Set) Clear(keep ...Category) Set {
	out := Set{values: make(map[Category][]string, len(keep))}
	for _, c := range keep {
		if v, ok := s.values[c]; ok {
			out.values[c] = slices.Clone(v)
		}
	}
	return out
}

// Has reports whether value is selected in c.
func (s Set) Has(c Category, value string) bool {
	return slices.Contains(s.values[c], value)
}

// Values returns a copy of the values of c.
func (s Set) Values(c Category) []string {
	return slices.Clone(s.values[c])
}

// Categories returns the non-empty categories: known ones in canonical order,
// then unknown ones sorted by name.
func (s Set) Categories() []Category {
	out := make([]Category, 0, len(s.values))
	for _, c := range categories {
		if len(s.values[c]) > 0 {
			out = append(out, c)
		}
	}
	var extra []Category
	for c, v := range s.values {
		if !c.IsValid() && len(v) > 0 {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// IsEmpty reports whether no category has values.
func (s Set) IsEmpty() bool {
	for _, v := range s.values {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Equal reports whether both sets select the same values in the same order.
func (s Set) Equal(o Set) bool {
	a, b := s.Categories(), o.Categories()
	if !slices.Equal(a, b) {
		return false
	}
	for _, c := range a {
		if !slices.Equal(s.values[c], o.values[c]) {
			return false
		}
	}
	return true
}

// Lock is a single deployment-fixed filter value.
type Lock struct {
	Key   string
	Value string
}

// Locked is the immutable set of filters the end user cannot remove.
type Locked struct {
	locks []Lock
}

// NewLocked builds a Locked set sorted by key.
func NewLocked(m map[string]string) Locked {
	locks := make([]Lock, 0, len(m))
	for k, v := range m {
		if k == "" {
			continue
		}
		locks = append(locks, Lock{Key: k, Value: v})
	}
	sort.Slice(locks, func(i, j int) bool { return locks[i].Key < locks[j].Key })
	return Locked{locks: locks}
}

// Locks returns a copy of the locked pairs in key order.
func (l Locked) Locks() []Lock { return slices.Clone(l.locks) }

// Len returns the number of locked filters.
func (l Locked) Len() int { return len(l.locks) }

// DateRange bounds the date category. Empty bounds are open.
type DateRange struct {
	Start string
	End   string
}

// IsZero reports whether neither bound is set.
func (d DateRange) IsZero() bool { return d.Start == "" && d.End == "" }
