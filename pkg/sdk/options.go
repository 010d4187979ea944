package discover

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	esURL      string
	esPath     string
	esUsername string
	esPassword string
	timeout    time.Duration

	redisAddrs    []string
	redisPassword string
	redisCacheTTL time.Duration
	cachePrefix   string

	fields       map[string]string
	lockedFields map[string]string
	locked       map[string]string
	provider     string
	pageSize     int

	shareBaseURL string
	shareAPIURL  string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the search backend. path is the search endpoint,
// e.g. "/share_customtax_1/_search"; empty means "/_search".
func WithElasticsearch(url, path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esURL = url
		c.esPath = path
	})
}

// WithBasicAuth sets credentials for the search backend.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithTimeout bounds every backend and SHARE API request. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRedis caches corpus counts and the type hierarchy in Redis.
// Without it nothing is cached.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	})
}

// WithRedisClientCache serves repeated cache reads from local memory for up to ttl,
// relying on server-assisted invalidation. Requires RESP3.
func WithRedisClientCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisCacheTTL = ttl
	})
}

// WithCachePrefix sets the cache key prefix. Default: "discover:".
func WithCachePrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cachePrefix = prefix
	})
}

// WithField maps a filter category to a backend field, overriding the default layout.
func WithField(c Category, field string) Option {
	return optionFunc(func(cfg *clientConfig) {
		if cfg.fields == nil {
			cfg.fields = make(map[string]string)
		}
		cfg.fields[string(c)] = field
	})
}

// WithLocked adds a filter the end user cannot remove. field, when non-empty,
// is the backend field the value is matched against; otherwise key is used.
func WithLocked(key, value, field string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.locked == nil {
			c.locked = make(map[string]string)
		}
		c.locked[key] = value
		if field != "" {
			if c.lockedFields == nil {
				c.lockedFields = make(map[string]string)
			}
			c.lockedFields[key] = field
		}
	})
}

// WithProvider binds every query to one source.
func WithProvider(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = name
	})
}

// WithPageSize sets the number of results per page. Default: 10.
func WithPageSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = size
	})
}

// WithShareBaseURL sets the prefix of canonical result links. Default: "https://share.osf.io/".
func WithShareBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.shareBaseURL = url
	})
}

// WithShareAPIURL sets the SHARE API root the type hierarchy is read from.
// Without it Types returns ErrNotFound.
func WithShareAPIURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.shareAPIURL = url
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
