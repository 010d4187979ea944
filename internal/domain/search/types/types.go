// Package types turns the backend's creative-work type hierarchy into facet labels.
package types

import (
	"strings"
	"unicode"
)

// Root is the top of the creative-work hierarchy.
const Root = "CreativeWork"

// Hierarchy is a nested tree of work types keyed by display label.
type Hierarchy map[string]any

// FromSchema extracts the children of Root from the schema document and relabels them.
// A schema without Root yields an empty hierarchy.
func FromSchema(schema map[string]any) Hierarchy {
	root, ok := schema[Root].(map[string]any)
	if !ok {
		return Hierarchy{}
	}
	children, ok := root["children"].(map[string]any)
	if !ok {
		return Hierarchy{}
	}
	out, _ := Transform(children).(map[string]any)
	return Hierarchy(out)
}

// Transform returns a copy of v with every map key relabeled by Label, recursively.
func Transform(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[Label(k)] = Transform(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Transform(child)
		}
		return out
	default:
		return v
	}
}

// Label splits a CamelCase key on capitals and lower-cases it: "ConferencePaper" -> "conference paper".
func Label(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(strings.TrimSpace(b.String()))
}

// Names returns the labels of the top level.
func (h Hierarchy) Names() []string {
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	return out
}
