package query

import "encoding/json"

// MatchAll is the free-text query used when the user typed nothing.
const MatchAll = "*"

// MaxSources caps the source aggregation buckets.
const MaxSources = 500

// Document is the search request body sent to the backend.
type Document struct {
	Query        Query                  `json:"query"`
	From         int                    `json:"from"`
	Size         int                    `json:"size"`
	Sort         *Sort                  `json:"sort,omitempty"`
	Aggregations map[string]Aggregation `json:"aggregations,omitempty"`
}

// Query is either a bare query_string or a bool query wrapping it with filters.
type Query struct {
	QueryString *QueryString `json:"query_string,omitempty"`
	Bool        *Bool        `json:"bool,omitempty"`
}

// QueryString is a Lucene-syntax free-text query.
type QueryString struct {
	Query string `json:"query"`
}

// Bool combines the free-text query with filter clauses.
type Bool struct {
	Must   Query    `json:"must"`
	Filter []Clause `json:"filter"`
}

// Text returns the free-text part of the query.
func (q Query) Text() string {
	if q.Bool != nil {
		return q.Bool.Must.Text()
	}
	if q.QueryString != nil {
		return q.QueryString.Query
	}
	return ""
}

// Filters returns the filter clauses (nil for a bare query_string).
func (q Query) Filters() []Clause {
	if q.Bool == nil {
		return nil
	}
	return q.Bool.Filter
}

// Clause is a single boolean filter. Exactly one field is set.
type Clause struct {
	Term  map[string]string      `json:"term,omitempty"`
	Terms map[string][]string    `json:"terms,omitempty"`
	Range map[string]RangeBounds `json:"range,omitempty"`
}

// Field returns the backend field the clause applies to.
func (c Clause) Field() string {
	for f := range c.Term {
		return f
	}
	for f := range c.Terms {
		return f
	}
	for f := range c.Range {
		return f
	}
	return ""
}

// RangeBounds is an inclusive range; empty bounds are omitted.
type RangeBounds struct {
	GTE string `json:"gte,omitempty"`
	LTE string `json:"lte,omitempty"`
}

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort orders results on one field. Serialized as {"field": "order"}.
type Sort struct {
	Field string
	Order Order
}

// MarshalJSON implements json.Marshaler.
func (s Sort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Order{s.Field: s.Order})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sort) UnmarshalJSON(data []byte) error {
	var m map[string]Order
	if err := json.Unmarshal(data, &m); err != nil {
		return err //nolint:wrapcheck // decoding our own shape
	}
	for f, o := range m {
		s.Field, s.Order = f, o
	}
	return nil
}

// ParseSort decodes a sort key: "-field" is descending, "field" ascending,
// empty means relevance (nil).
func ParseSort(key string) *Sort {
	if key == "" || key == "-" {
		return nil
	}
	if key[0] == '-' {
		return &Sort{Field: key[1:], Order: Desc}
	}
	return &Sort{Field: key, Order: Asc}
}

// Aggregation requests a backend summary. Exactly one field is set.
type Aggregation struct {
	Terms       *TermsAggregation       `json:"terms,omitempty"`
	Cardinality *CardinalityAggregation `json:"cardinality,omitempty"`
}

// TermsAggregation buckets documents by field value.
type TermsAggregation struct {
	Field string `json:"field"`
	Size  int    `json:"size"`
}

// CardinalityAggregation counts distinct field values.
type CardinalityAggregation struct {
	Field              string `json:"field"`
	PrecisionThreshold int    `json:"precision_threshold"`
}

// CountsDocument builds the request for the total number of works and distinct sources.
func CountsDocument(sourceField string) Document {
	if sourceField == "" {
		sourceField = DefaultSourceField
	}
	return Document{
		Query: Query{QueryString: &QueryString{Query: MatchAll}},
		Size:  0,
		Aggregations: map[string]Aggregation{
			"sources": {Cardinality: &CardinalityAggregation{
				Field:              sourceField,
				PrecisionThreshold: MaxSources,
			}},
		},
	}
}
