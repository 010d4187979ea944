package result

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemType marks normalized backend documents.
const ItemType = "elastic-search-result"

// Page is one normalized search response.
type Page struct {
	Items        []Item          `json:"results"`
	Total        int             `json:"total"`
	Took         float64         `json:"took"` // seconds
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
}

// Empty is the degraded page shown after a failed search.
func Empty() Page {
	return Page{Items: []Item{}}
}

// Item is a display-ready projection of a backend document.
type Item struct {
	ID               string         `json:"id"`
	Type             string         `json:"type"`
	WorkType         string         `json:"workType"`
	Title            string         `json:"title"`
	Abstract         string         `json:"abstract"`
	DateCreated      string         `json:"dateCreated,omitempty"`
	DateUpdated      string         `json:"dateUpdated,omitempty"`
	DatePublished    string         `json:"datePublished,omitempty"`
	RegistrationType string         `json:"registrationType,omitempty"`
	Tags             []string       `json:"tags"`
	Subjects         []Subject      `json:"subjects"`
	Providers        []Provider     `json:"providers"`
	HyperLinks       []HyperLink    `json:"hyperLinks"`
	InfoLinks        []InfoLink     `json:"infoLinks"`
	Contributors     []Contributor  `json:"contributors"`
	Source           map[string]any `json:"source,omitempty"`
}

// Subject wraps a subject name.
type Subject struct {
	Text string `json:"text"`
}

// Provider wraps a source name.
type Provider struct {
	Name string `json:"name"`
}

// HyperLink is a clickable identifier.
type HyperLink struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
}

// InfoLink is a non-clickable identifier such as a DOI.
type InfoLink struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Normalizer converts raw responses. It holds only configuration.
type Normalizer struct {
	shareBaseURL string
}

// NewNormalizer creates a Normalizer. shareBaseURL prefixes the canonical detail link.
func NewNormalizer(shareBaseURL string) *Normalizer {
	return &Normalizer{shareBaseURL: shareBaseURL}
}

// NormalizeBytes decodes and normalizes a backend response body.
func (n *Normalizer) NormalizeBytes(data []byte) (Page, error) {
	raw, err := Decode(data)
	if err != nil {
		return Page{}, err
	}
	return n.Normalize(raw), nil
}

// Normalize projects every hit of raw. raw is not modified.
func (n *Normalizer) Normalize(raw RawResponse) Page {
	items := make([]Item, 0, len(raw.Hits.Hits))
	for _, hit := range raw.Hits.Hits {
		items = append(items, n.item(hit))
	}
	var aggs json.RawMessage
	if len(raw.Aggregations) > 0 && string(raw.Aggregations) != "null" {
		aggs = append(json.RawMessage(nil), raw.Aggregations...)
	}
	return Page{
		Items:        items,
		Total:        int(raw.Hits.Total),
		Took:         float64(raw.Took) / 1000,
		Aggregations: aggs,
	}
}

func (n *Normalizer) item(hit RawHit) Item {
	src := hit.Source
	it := Item{
		ID:               hit.ID,
		Type:             ItemType,
		WorkType:         stringField(src, "@type"),
		Title:            stringField(src, "title"),
		Abstract:         stringField(src, "description"),
		DateCreated:      stringField(src, "date_created"),
		DateUpdated:      stringField(src, "date_updated"),
		DatePublished:    stringField(src, "date_published"),
		RegistrationType: stringField(src, "registration_type"),
		Tags:             stringList(src, "tags"),
		Subjects:         []Subject{},
		Providers:        []Provider{},
		InfoLinks:        []InfoLink{},
		Source:           copyMap(src),
	}
	for _, s := range stringList(src, "subjects") {
		it.Subjects = append(it.Subjects, Subject{Text: s})
	}
	for _, s := range stringList(src, "sources") {
		it.Providers = append(it.Providers, Provider{Name: s})
	}

	it.HyperLinks = []HyperLink{{
		Type: "share",
		URL:  n.shareBaseURL + stringField(src, "type") + "/" + hit.ID,
	}}
	for _, id := range stringList(src, "identifiers") {
		if strings.HasPrefix(id, "http://") {
			it.HyperLinks = append(it.HyperLinks, HyperLink{URL: id})
			continue
		}
		// Only the segment between the first and second separator is kept.
		parts := strings.Split(id, "://")
		link := InfoLink{Type: parts[0]}
		if len(parts) > 1 {
			link.URI = parts[1]
		}
		it.InfoLinks = append(it.InfoLinks, link)
	}

	it.Contributors = normalizeContributors(contributorList(src))
	return it
}

func contributorList(src map[string]any) []map[string]any {
	lists, ok := src["lists"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := lists["contributors"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringField(src map[string]any, key string) string {
	switch v := src[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func stringList(src map[string]any, key string) []string {
	raw, ok := src[key].([]any)
	if !ok {
		if s, isStr := src[key].(string); isStr && s != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
