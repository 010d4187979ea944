package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/discover/internal/domain/search/filter"
	"github.com/kailas-cloud/discover/internal/domain/search/query"
)

// Config holds the discover API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Search   SearchConfig   `yaml:"search"`
	Discover DiscoverConfig `yaml:"discover"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds search backend and SHARE API settings.
type SearchConfig struct {
	URL          string `yaml:"url"`
	Path         string `yaml:"path"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	ShareBaseURL string `yaml:"share_base_url"` // prefix of canonical detail links
	ShareAPIURL  string `yaml:"share_api_url"`  // type hierarchy source; empty disables /types
}

// DiscoverConfig describes one discover page deployment.
type DiscoverConfig struct {
	Fields       map[string]string `yaml:"fields"`        // filter category -> backend field; empty uses defaults
	LockedFields map[string]string `yaml:"locked_fields"` // locked key -> backend field
	Locked       map[string]string `yaml:"locked"`        // filters applied to every query
	Provider     string            `yaml:"provider"`
	SourceField  string            `yaml:"source_field"`
	DateField    string            `yaml:"date_field"`
	PageSize     int               `yaml:"page_size"`
}

// CacheConfig holds cache store settings. No addrs means caching is disabled.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Standalone       bool     `yaml:"standalone"`           // skip cluster discovery
	ClientCacheSec   int      `yaml:"client_cache_ttl_sec"` // 0 disables client-side caching
	KeyPrefix        string   `yaml:"key_prefix"`
	CountsTTLSec     int      `yaml:"counts_ttl_sec"`
	TypesTTLSec      int      `yaml:"types_ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache store is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Path == "" {
		c.Search.Path = "/_search"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 10
	}
	if c.Search.ShareBaseURL == "" {
		c.Search.ShareBaseURL = "https://share.osf.io/"
	}
	if c.Discover.PageSize <= 0 {
		c.Discover.PageSize = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "discover:"
	}
	if c.Cache.CountsTTLSec <= 0 {
		c.Cache.CountsTTLSec = 300
	}
	if c.Cache.TypesTTLSec <= 0 {
		c.Cache.TypesTTLSec = 86400
	}
	if c.Cache.ClientCacheSec < 0 {
		c.Cache.ClientCacheSec = 0
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	// unset ${VAR} entries expand to empty strings
	c.Cache.Addrs = slices.DeleteFunc(c.Cache.Addrs, isBlank)
	c.Auth.APIKeys = slices.DeleteFunc(c.Auth.APIKeys, isBlank)
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.URL == "" {
		return fmt.Errorf("search.url is required")
	}
	if c.Discover.PageSize > 100 {
		return fmt.Errorf("discover.page_size must be at most 100, got %d", c.Discover.PageSize)
	}
	for name := range c.Discover.Fields {
		if !filter.Category(name).IsValid() {
			return fmt.Errorf("discover.fields: unknown filter category %q", name)
		}
	}
	for key := range c.Discover.Locked {
		if key == "" {
			return fmt.Errorf("discover.locked: empty key")
		}
	}
	return nil
}

// Mapping returns the field mapping of the deployment, starting from the
// default index layout and overriding it with configured fields.
func (d DiscoverConfig) Mapping() query.Mapping {
	m := query.DefaultMapping()
	for name, field := range d.Fields {
		m.Fields[filter.Category(name)] = field
	}
	for key, field := range d.LockedFields {
		m.LockedFields[key] = field
	}
	if d.SourceField != "" {
		m.SourceField = d.SourceField
	}
	if d.DateField != "" {
		m.DateField = d.DateField
	}
	m.Provider = d.Provider
	return m
}

// LockedFilters returns the locked filter set.
func (d DiscoverConfig) LockedFilters() filter.Locked {
	return filter.NewLocked(d.Locked)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
