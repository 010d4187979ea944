package result

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// missingOrder ranks contributors without a usable order_cited after every cited one.
const missingOrder = -1

// Contributor is a normalized contributor entry. Users holds the camel-cased
// attributes plus the computed "bibliographic" flag.
type Contributor struct {
	Users map[string]any `json:"users"`
}

// Bibliographic reports whether the contributor is listed in citations.
func (c Contributor) Bibliographic() bool {
	b, _ := c.Users["bibliographic"].(bool)
	return b
}

// OrderCited returns the citation position, or -1 when absent.
func (c Contributor) OrderCited() float64 {
	return orderValue(c.Users["orderCited"])
}

func normalizeContributors(raw []map[string]any) []Contributor {
	sorted := make([]map[string]any, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortRank(sorted[i]["order_cited"]) > sortRank(sorted[j]["order_cited"])
	})

	out := make([]Contributor, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, normalizeContributor(c))
	}
	return out
}

func normalizeContributor(c map[string]any) Contributor {
	relation, _ := c["relation"].(string)
	users := map[string]any{"bibliographic": relation != "contributor"}

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		users[camelize(k)] = copyValue(c[k])
	}

	// Upstream data is partially migrated: anything but a literal false counts as true.
	b, isBool := users["bibliographic"].(bool)
	users["bibliographic"] = !isBool || b

	return Contributor{Users: users}
}

// sortRank is the descending sort key for order_cited. Zero is treated as unset
// and shares missingOrder with absent values.
func sortRank(v any) float64 {
	if n := orderValue(v); n != 0 {
		return n
	}
	return missingOrder
}

func orderValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return missingOrder
}

var (
	camelSeparators = regexp.MustCompile(`[-_.\s]+(.)?`)
	camelLeading    = regexp.MustCompile(`(^|/)[A-Z]`)
)

// camelize turns "order_cited" into "orderCited" and lowers a leading capital.
func camelize(s string) string {
	s = camelSeparators.ReplaceAllStringFunc(s, func(m string) string {
		sub := camelSeparators.FindStringSubmatch(m)
		return strings.ToUpper(sub[1])
	})
	return camelLeading.ReplaceAllStringFunc(s, strings.ToLower)
}
