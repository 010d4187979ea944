// Package elastic sends query documents to the search backend.
package elastic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/query"
	"github.com/kailas-cloud/discover/internal/metrics"
)

// Operation label values for backend metrics.
const (
	opSearch = "search"
	opCounts = "counts"
)

// Config holds the backend connection settings.
type Config struct {
	URL      string
	Path     string // search endpoint, e.g. "/share_customtax_1/_search"
	Username string
	Password string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client posts query documents to the search endpoint.
type Client struct {
	es     *elastic.Client
	url    string
	path   string
	logger *zap.Logger
}

// New creates a backend client. Sniffing and background health checks are
// disabled: the endpoint is usually behind a proxy that hides cluster nodes.
func New(cfg *Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("elasticsearch url is required")
	}
	path := cfg.Path
	if path == "" {
		path = "/_search"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	es, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, url: cfg.URL, path: path, logger: logger}, nil
}

// Search runs a result-page query and returns the raw response body.
func (c *Client) Search(ctx context.Context, doc query.Document) ([]byte, error) {
	return c.perform(ctx, opSearch, doc)
}

// Counts runs a counts query and returns the raw response body.
func (c *Client) Counts(ctx context.Context, doc query.Document) ([]byte, error) {
	return c.perform(ctx, opCounts, doc)
}

// Ping verifies the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, _, err := c.es.Ping(c.url).Do(ctx); err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	return nil
}

func (c *Client) perform(ctx context.Context, op string, doc query.Document) ([]byte, error) {
	start := time.Now()
	resp, err := c.es.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: http.MethodPost,
		Path:   c.path,
		Body:   doc,
	})
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		mapped := classify(err)
		metrics.BackendRequestsTotal.WithLabelValues(op, statusLabel(mapped)).Inc()
		c.logger.Debug("Backend request failed",
			zap.String("operation", op),
			zap.String("path", c.path),
			zap.Error(err),
		)
		return nil, mapped
	}

	metrics.BackendRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.Body, nil
}

// classify turns a client error into a domain.StatusError.
// Errors without an HTTP status (connection refused, timeouts) count as unavailable.
func classify(err error) error {
	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		return domain.NewStatusError(esErr.Status, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
}

func statusLabel(err error) string {
	var se *domain.StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Status)
	}
	return "error"
}
