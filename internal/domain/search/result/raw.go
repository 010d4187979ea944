package result

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawResponse is the search backend envelope.
type RawResponse struct {
	Took         int64           `json:"took"` // milliseconds
	Hits         RawHits         `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
}

// RawHits holds the matched documents.
type RawHits struct {
	Total Total    `json:"total"`
	Hits  []RawHit `json:"hits"`
}

// RawHit is one opaque backend document.
type RawHit struct {
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

// Total accepts both the bare integer and the {"value": n} object form of hits.total.
type Total int

// UnmarshalJSON implements json.Unmarshaler.
func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Value int `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("hits.total: %w", err)
		}
		*t = Total(obj.Value)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("hits.total: %w", err)
	}
	*t = Total(n)
	return nil
}

// Decode parses a raw backend response. Numbers inside _source keep their literal form.
func Decode(data []byte) (RawResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw RawResponse
	if err := dec.Decode(&raw); err != nil {
		return RawResponse{}, fmt.Errorf("decode search response: %w", err)
	}
	return raw, nil
}

// Counts is the corpus summary shown above the results.
type Counts struct {
	Events  int `json:"events"`
	Sources int `json:"sources"`
}

// ParseCounts reads the response to a query.CountsDocument request.
func ParseCounts(data []byte) (Counts, error) {
	var resp struct {
		Hits struct {
			Total Total `json:"total"`
		} `json:"hits"`
		Aggregations struct {
			Sources struct {
				Value int `json:"value"`
			} `json:"sources"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return Counts{}, fmt.Errorf("decode counts response: %w", err)
	}
	return Counts{
		Events:  int(resp.Hits.Total),
		Sources: resp.Aggregations.Sources.Value,
	}, nil
}
