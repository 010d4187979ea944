package query

import (
	"fmt"
	"maps"
	"strings"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/filter"
)

// Backend field defaults.
const (
	DefaultSourceField = "sources"
	DefaultDateField   = "date"
)

// Mapping ties logical filter categories to backend fields for one deployment.
type Mapping struct {
	// Fields maps a category to the backend field it filters. Unmapped categories are ignored.
	Fields map[filter.Category]string
	// LockedFields maps a locked key to its backend field. Keys not listed filter the field of the same name.
	LockedFields map[string]string
	SourceField  string
	DateField    string
	// Provider binds every query to one source. Empty means not provider-bound.
	Provider string
}

// DefaultMapping returns the field layout of the SHARE creative-work index.
func DefaultMapping() Mapping {
	return Mapping{
		Fields: map[filter.Category]string{
			filter.Provider:      "sources",
			filter.Subject:       "subjects",
			filter.Type:          "types",
			filter.Tags:          "tags",
			filter.Sources:       "sources",
			filter.Publishers:    "publishers",
			filter.Funders:       "funders",
			filter.Language:      "language",
			filter.Contributors:  "contributors",
			filter.Organizations: "organizations",
			filter.Institutions:  "affiliations",
		},
		LockedFields: map[string]string{
			"contributors": "lists.contributors.name",
		},
		SourceField: DefaultSourceField,
		DateField:   DefaultDateField,
	}
}

// ProviderBound reports whether queries are scoped to a fixed provider.
func (m Mapping) ProviderBound() bool { return m.Provider != "" }

// Request holds everything a single query is built from.
type Request struct {
	Filters             filter.Set
	Locked              filter.Locked
	Dates               filter.DateRange
	Text                string
	Page                int
	PageSize            int
	Sort                string
	IncludeAggregations bool
}

// Builder turns requests into query documents. It holds only configuration and is safe to share.
type Builder struct {
	mapping Mapping
}

// NewBuilder creates a Builder, filling empty source/date fields with defaults.
func NewBuilder(m Mapping) *Builder {
	m.Fields = maps.Clone(m.Fields)
	m.LockedFields = maps.Clone(m.LockedFields)
	if m.SourceField == "" {
		m.SourceField = DefaultSourceField
	}
	if m.DateField == "" {
		m.DateField = DefaultDateField
	}
	return &Builder{mapping: m}
}

// Mapping returns the builder's configuration.
func (b *Builder) Mapping() Mapping { return b.mapping }

// Build assembles the query document for req.
func (b *Builder) Build(req Request) (Document, error) {
	if req.Page < 1 {
		return Document{}, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrInvalidRequest, req.Page)
	}
	if req.PageSize <= 0 {
		return Document{}, fmt.Errorf("%w: page size must be > 0, got %d", domain.ErrInvalidRequest, req.PageSize)
	}

	filters := b.lockedClauses(req.Locked)
	filters = append(filters, b.filterClauses(req.Filters)...)
	if !req.Dates.IsZero() {
		filters = append(filters, Clause{Range: map[string]RangeBounds{
			b.mapping.DateField: {GTE: req.Dates.Start, LTE: req.Dates.End},
		}})
	}
	if b.mapping.ProviderBound() {
		filters = append(filters, Clause{Terms: map[string][]string{
			b.mapping.SourceField: {b.mapping.Provider},
		}})
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = MatchAll
	}
	q := Query{QueryString: &QueryString{Query: text}}
	if len(filters) > 0 {
		q = Query{Bool: &Bool{Must: q, Filter: filters}}
	}

	doc := Document{
		Query: q,
		From:  (req.Page - 1) * req.PageSize,
		Size:  req.PageSize,
		Sort:  ParseSort(strings.TrimSpace(req.Sort)),
	}
	if req.IncludeAggregations {
		doc.Aggregations = map[string]Aggregation{
			"sources": {Terms: &TermsAggregation{Field: b.mapping.SourceField, Size: MaxSources}},
		}
	}
	return doc, nil
}

func (b *Builder) lockedClauses(locked filter.Locked) []Clause {
	out := make([]Clause, 0, locked.Len())
	for _, l := range locked.Locks() {
		field, ok := b.mapping.LockedFields[l.Key]
		if !ok {
			field = l.Key
		}
		out = append(out, Clause{Term: map[string]string{field: l.Value}})
	}
	return out
}

func (b *Builder) filterClauses(set filter.Set) []Clause {
	var out []Clause
	for _, c := range set.Categories() {
		if c == filter.Provider && b.mapping.ProviderBound() {
			continue
		}
		field, ok := b.mapping.Fields[c]
		if !ok || field == "" {
			continue
		}
		out = append(out, Clause{Terms: map[string][]string{field: set.Values(c)}})
	}
	return out
}

// Counts returns the document that counts all works and distinct sources,
// scoped to the provider when the mapping is provider-bound.
func (b *Builder) Counts() Document {
	doc := CountsDocument(b.mapping.SourceField)
	if b.mapping.ProviderBound() {
		doc.Query = Query{Bool: &Bool{
			Must: doc.Query,
			Filter: []Clause{{Terms: map[string][]string{
				b.mapping.SourceField: {b.mapping.Provider},
			}}},
		}}
	}
	return doc
}
