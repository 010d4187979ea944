// Package share fetches reference data from the SHARE API.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/version"
)

const hierarchyPath = "/schema/creativework/hierarchy/"

// Client reads the creative-work schema.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a SHARE API client. baseURL is the API root, e.g. "https://share.osf.io/api/v2".
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("share api url is required")
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type hierarchyResponse struct {
	Data map[string]any `json:"data"`
}

// Hierarchy returns the raw creative-work type hierarchy (the JSON:API "data" member).
func (c *Client) Hierarchy(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+hierarchyPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: type hierarchy request: %w", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewStatusError(resp.StatusCode, fmt.Errorf("type hierarchy returned HTTP %d", resp.StatusCode))
	}

	var hr hierarchyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("%w: parsing type hierarchy: %w", domain.ErrServiceUnavailable, err)
	}
	if hr.Data == nil {
		return map[string]any{}, nil
	}
	return hr.Data, nil
}
