package result

import (
	"encoding/json"
	"reflect"
	"testing"
)

const shareBase = "https://share.osf.io/"

const sampleResponse = `{
  "took": 1250,
  "hits": {
    "total": 42,
    "hits": [{
      "_id": "461A4-8BA-2F9",
      "_source": {
        "@type": "Preprint",
        "type": "preprint",
        "title": "On Things",
        "description": "An abstract.",
        "date_updated": "2020-02-01T00:00:00Z",
        "registration_type": "Prereg",
        "tags": ["open"],
        "subjects": ["Biology", "Genetics"],
        "sources": ["OSF", "PsyArXiv"],
        "identifiers": ["http://osf.io/abc", "doi://10.1/x", "https://example.org/y", "plain", "ark://a://b"],
        "lists": {"contributors": [
          {"name": "B", "order_cited": 2, "relation": "creator"},
          {"name": "N", "relation": "contributor"},
          {"name": "A", "order_cited": 5, "cited_as": "A.", "bibliographic": "false"}
        ]}
      }
    }]
  },
  "aggregations": {"sources": {"buckets": [{"key": "OSF", "doc_count": 3}]}}
}`

func mustNormalize(t *testing.T, data string) Page {
	t.Helper()
	p, err := NewNormalizer(shareBase).NormalizeBytes([]byte(data))
	if err != nil {
		t.Fatalf("NormalizeBytes: %v", err)
	}
	return p
}

func TestNormalize_Envelope(t *testing.T) {
	p := mustNormalize(t, sampleResponse)
	if p.Total != 42 {
		t.Errorf("Total = %d", p.Total)
	}
	if p.Took != 1.25 {
		t.Errorf("Took = %v, want 1.25", p.Took)
	}
	if len(p.Aggregations) == 0 {
		t.Error("expected aggregations")
	}
	if len(p.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(p.Items))
	}
}

func TestNormalize_ItemFields(t *testing.T) {
	it := mustNormalize(t, sampleResponse).Items[0]

	if it.Type != ItemType || it.WorkType != "Preprint" {
		t.Errorf("type = %q / %q", it.Type, it.WorkType)
	}
	if it.Abstract != "An abstract." || it.Title != "On Things" {
		t.Errorf("abstract/title = %q / %q", it.Abstract, it.Title)
	}
	if it.RegistrationType != "Prereg" {
		t.Errorf("RegistrationType = %q", it.RegistrationType)
	}
	wantSubjects := []Subject{{Text: "Biology"}, {Text: "Genetics"}}
	if !reflect.DeepEqual(it.Subjects, wantSubjects) {
		t.Errorf("Subjects = %+v", it.Subjects)
	}
	wantProviders := []Provider{{Name: "OSF"}, {Name: "PsyArXiv"}}
	if !reflect.DeepEqual(it.Providers, wantProviders) {
		t.Errorf("Providers = %+v", it.Providers)
	}
}

func TestNormalize_IdentifierPartition(t *testing.T) {
	it := mustNormalize(t, sampleResponse).Items[0]

	wantHyper := []HyperLink{
		{Type: "share", URL: shareBase + "preprint/461A4-8BA-2F9"},
		{URL: "http://osf.io/abc"},
	}
	if !reflect.DeepEqual(it.HyperLinks, wantHyper) {
		t.Errorf("HyperLinks = %+v", it.HyperLinks)
	}

	wantInfo := []InfoLink{
		{Type: "doi", URI: "10.1/x"},
		{Type: "https", URI: "example.org/y"},
		{Type: "plain", URI: ""},
		{Type: "ark", URI: "a"},
	}
	if !reflect.DeepEqual(it.InfoLinks, wantInfo) {
		t.Errorf("InfoLinks = %+v", it.InfoLinks)
	}
}

func TestNormalize_ContributorOrder(t *testing.T) {
	cs := mustNormalize(t, sampleResponse).Items[0].Contributors
	if len(cs) != 3 {
		t.Fatalf("expected 3 contributors, got %d", len(cs))
	}
	var names []any
	for _, c := range cs {
		names = append(names, c.Users["name"])
	}
	if !reflect.DeepEqual(names, []any{"A", "B", "N"}) {
		t.Errorf("order = %v, want [A B N]", names)
	}
	if cs[2].OrderCited() != -1 {
		t.Errorf("missing order_cited = %v, want -1", cs[2].OrderCited())
	}
}

func TestNormalize_ContributorKeysAndBibliographic(t *testing.T) {
	cs := mustNormalize(t, sampleResponse).Items[0].Contributors

	a := cs[0].Users
	if _, ok := a["orderCited"]; !ok {
		t.Errorf("expected camelized orderCited, got keys %v", a)
	}
	if a["citedAs"] != "A." {
		t.Errorf("citedAs = %v", a["citedAs"])
	}
	if _, ok := a["order_cited"]; ok {
		t.Error("snake_case key should not survive")
	}
	if !cs[0].Bibliographic() {
		t.Error(`"false" string must coerce to true`)
	}
	if !cs[1].Bibliographic() {
		t.Error("creator should be bibliographic")
	}
	if cs[2].Bibliographic() {
		t.Error("relation contributor should not be bibliographic")
	}
}

func TestNormalizeContributors_Table(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want bool
		rank float64
	}{
		{"no flag creator", map[string]any{"relation": "creator"}, true, missingOrder},
		{"no flag contributor", map[string]any{"relation": "contributor"}, false, missingOrder},
		{"explicit false", map[string]any{"relation": "creator", "bibliographic": false}, false, missingOrder},
		{"explicit true overrides relation", map[string]any{"relation": "contributor", "bibliographic": true}, true, missingOrder},
		{"null flag", map[string]any{"relation": "contributor", "bibliographic": nil}, true, missingOrder},
		{"numeric zero", map[string]any{"bibliographic": 0.0}, true, missingOrder},
		{"order cited zero ranks as missing", map[string]any{"relation": "creator", "order_cited": 0.0}, true, missingOrder},
		{"order cited string", map[string]any{"relation": "creator", "order_cited": "3"}, true, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeContributor(tc.in).Bibliographic(); got != tc.want {
				t.Errorf("Bibliographic() = %v, want %v", got, tc.want)
			}
			if got := sortRank(tc.in["order_cited"]); got != tc.rank {
				t.Errorf("sortRank() = %v, want %v", got, tc.rank)
			}
		})
	}
}

func TestNormalizeContributors_MissingOrderLast(t *testing.T) {
	in := []map[string]any{
		{"name": "two", "order_cited": 2.0},
		{"name": "none", "order_cited": nil},
		{"name": "zero", "order_cited": 0.0},
		{"name": "five", "order_cited": json.Number("5")},
	}
	out := normalizeContributors(in)

	var got []any
	for _, c := range out {
		got = append(got, c.Users["name"])
	}
	if !reflect.DeepEqual(got, []any{"five", "two", "none", "zero"}) {
		t.Errorf("order = %v", got)
	}
	if in[0]["name"] != "two" {
		t.Error("input slice reordered")
	}
}

func TestCamelize(t *testing.T) {
	tests := map[string]string{
		"order_cited":     "orderCited",
		"cited_as":        "citedAs",
		"name":            "name",
		"Given_Name":      "givenName",
		"identifiers-raw": "identifiersRaw",
		"a.b c":           "aBC",
		"trailing_":       "trailing",
	}
	for in, want := range tests {
		if got := camelize(in); got != want {
			t.Errorf("camelize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_MissingLists(t *testing.T) {
	p := mustNormalize(t, `{"took": 3, "hits": {"total": {"value": 1, "relation": "eq"},
		"hits": [{"_id": "x", "_source": {"type": "article"}}]}}`)

	if p.Total != 1 {
		t.Errorf("Total = %d", p.Total)
	}
	if p.Aggregations != nil {
		t.Errorf("expected no aggregations, got %s", p.Aggregations)
	}
	it := p.Items[0]
	if len(it.Contributors) != 0 || len(it.Subjects) != 0 || len(it.Providers) != 0 || len(it.InfoLinks) != 0 {
		t.Errorf("expected empty lists: %+v", it)
	}
	if len(it.HyperLinks) != 1 || it.HyperLinks[0].URL != shareBase+"article/x" {
		t.Errorf("HyperLinks = %+v", it.HyperLinks)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw, err := Decode([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n := NewNormalizer(shareBase)

	first := n.Normalize(raw)
	first.Items[0].Contributors[0].Users["name"] = "mutated"
	first.Items[0].Source["title"] = "mutated"

	second := n.Normalize(raw)
	third := n.Normalize(raw)
	if !reflect.DeepEqual(second, third) {
		t.Error("normalizing twice produced different pages")
	}
	if second.Items[0].Contributors[0].Users["name"] != "A" {
		t.Error("mutation of a previous result leaked into raw input")
	}
	if second.Items[0].Source["title"] != "On Things" {
		t.Error("source map shared between results")
	}
}

func TestNormalizeBytes_Invalid(t *testing.T) {
	if _, err := NewNormalizer(shareBase).NormalizeBytes([]byte(`{"hits":`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseCounts(t *testing.T) {
	c, err := ParseCounts([]byte(`{"hits":{"total":{"value":1234}},"aggregations":{"sources":{"value":87}}}`))
	if err != nil {
		t.Fatalf("ParseCounts: %v", err)
	}
	if c.Events != 1234 || c.Sources != 87 {
		t.Errorf("Counts = %+v", c)
	}
}
