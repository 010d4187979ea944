package discover

import (
	"net/url"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/filter"
	"github.com/kailas-cloud/discover/internal/domain/search/params"
	"github.com/kailas-cloud/discover/internal/domain/search/query"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/domain/search/types"
	searchuc "github.com/kailas-cloud/discover/internal/usecase/search"
)

// State is the immutable description of one search. Its With*, Toggle*,
// Add*, Remove* and Clear* methods return a new State.
type State = state.State

// DateRange bounds the date filter. Empty bounds are open.
type DateRange = filter.DateRange

// FilterSet holds the selected values per category.
type FilterSet = filter.Set

// Category is a filterable search dimension.
type Category = filter.Category

// Filter categories.
const (
	Provider      = filter.Provider
	Subject       = filter.Subject
	Type          = filter.Type
	Tags          = filter.Tags
	Sources       = filter.Sources
	Publishers    = filter.Publishers
	Funders       = filter.Funders
	Language      = filter.Language
	Contributors  = filter.Contributors
	Organizations = filter.Organizations
	Institutions  = filter.Institutions
)

// Result is the outcome of one search. After a backend failure it carries an
// empty page and Failure says which kind.
type Result = searchuc.Outcome

// Page is a normalized result page.
type Page = result.Page

// Item is one normalized search hit.
type Item = result.Item

// Contributor is a normalized contributor of an Item.
type Contributor = result.Contributor

// Counts summarizes the corpus.
type Counts = result.Counts

// TypeHierarchy is the work-type tree keyed by display label.
type TypeHierarchy = types.Hierarchy

// QueryDocument is the request body sent to the search backend.
type QueryDocument = query.Document

// Failure is the kind of a failed search.
type Failure = domain.Failure

// Failure kinds.
const (
	FailureNone        = domain.FailureNone
	FailureQuerySyntax = domain.FailureQuerySyntax
	FailureUnavailable = domain.FailureUnavailable
)

// Reducer derives the next state from the current one.
type Reducer = searchuc.Reducer

// NewState returns the state of a fresh discover page with the default page size.
func NewState() State { return state.New() }

// DecodeParams reads a State from URL query parameters.
func DecodeParams(v url.Values) (State, error) {
	return params.Decode(v)
}

// EncodeParams writes st as URL query parameters. Defaults are omitted.
func EncodeParams(st State) url.Values {
	return params.Encode(st)
}
