// Package config provides configuration loading from environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/purl-logs/purl-explorer/internal/interval"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// EnvPrefix is prepended to every environment variable, e.g. PURL_BASE_URL.
const EnvPrefix = "PURL"

// Engine defaults
const (
	DefaultRangeValue       = "15m"
	MaxResultsValue         = 500
	FacetLimitValue         = 10
	DebounceDelayValue      = 300 * time.Millisecond
	PatternLimitValue       = 30
	PatternLogsLimitValue   = 100
	ContextLinesValue       = 50
	TraceCacheMaxItemsValue = 256
)

// Config holds all configuration for the engine and the MCP server.
type Config struct {
	BaseURL           string        `mapstructure:"base-url"`            // PURL_BASE_URL
	HTTPClientTimeout time.Duration `mapstructure:"http-client-timeout"` // PURL_HTTP_CLIENT_TIMEOUT, default 15s

	DefaultRange  string        `mapstructure:"default-range"`  // PURL_DEFAULT_RANGE, default "15m"
	MaxResults    int           `mapstructure:"max-results"`    // PURL_MAX_RESULTS, search row cap and live buffer cap
	FacetLimit    int           `mapstructure:"facet-limit"`    // PURL_FACET_LIMIT, values per facet
	Facets        []string      `mapstructure:"facets"`         // PURL_FACETS, comma separated
	NestedFacets  []string      `mapstructure:"nested-facets"`  // PURL_NESTED_FACETS, comma separated
	DebounceDelay time.Duration `mapstructure:"debounce-delay"` // PURL_DEBOUNCE_DELAY, default 300ms

	// RefreshInterval re-runs the current search periodically when > 0 and
	// live mode is off.
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`

	PatternLimit       int `mapstructure:"pattern-limit"`
	PatternLogsLimit   int `mapstructure:"pattern-logs-limit"`
	ContextLines       int `mapstructure:"context-lines"`
	TraceCacheMaxItems int `mapstructure:"trace-cache-max-items"`

	// MetricsSummary maps a summary name to a jq expression evaluated against
	// the /metrics/json response. Only settable from the config file.
	MetricsSummary map[string]string `mapstructure:"metrics-summary"`

	// Logging configuration
	LogLevel      string `mapstructure:"log-level"`        // debug, info, warn, error
	LogFormat     string `mapstructure:"log-format"`       // text or json
	LogFile       string `mapstructure:"log-file"`         // empty = stderr only
	LogMaxSizeMB  int    `mapstructure:"log-max-size-mb"`  // default 10
	LogMaxBackups int    `mapstructure:"log-max-backups"`  // default 5
	LogMaxAgeDays int    `mapstructure:"log-max-age-days"` // default 28
	LogCompress   bool   `mapstructure:"log-compress"`     // default true
}

// AllFacets returns the fixed facets followed by the nested facets.
func (c *Config) AllFacets() []string {
	out := make([]string, 0, len(c.Facets)+len(c.NestedFacets))
	out = append(out, c.Facets...)
	return append(out, c.NestedFacets...)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base-url must not be empty")
	case c.MaxResults <= 0:
		return fmt.Errorf("max-results must be positive, got %d", c.MaxResults)
	case c.FacetLimit <= 0:
		return fmt.Errorf("facet-limit must be positive, got %d", c.FacetLimit)
	case c.HTTPClientTimeout < 0:
		return fmt.Errorf("http-client-timeout must not be negative, got %s", c.HTTPClientTimeout)
	case c.DebounceDelay < 0:
		return fmt.Errorf("debounce-delay must not be negative, got %s", c.DebounceDelay)
	case c.RefreshInterval < 0:
		return fmt.Errorf("refresh-interval must not be negative, got %s", c.RefreshInterval)
	case !interval.IsPreset(c.DefaultRange):
		return fmt.Errorf("default-range %q is not a preset range", c.DefaultRange)
	case c.TraceCacheMaxItems <= 0:
		return fmt.Errorf("trace-cache-max-items must be positive, got %d", c.TraceCacheMaxItems)
	}
	return nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := load(viper.New(), "")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from PURL_* environment variables and, when
// configPath is non-empty, a config file. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return load(v, configPath)
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base-url", client.DefaultBaseURL)
	v.SetDefault("http-client-timeout", 15*time.Second)

	v.SetDefault("default-range", DefaultRangeValue)
	v.SetDefault("max-results", MaxResultsValue)
	v.SetDefault("facet-limit", FacetLimitValue)
	v.SetDefault("facets", []string{"level", "service", "host"})
	v.SetDefault("nested-facets", []string{"meta.namespace", "meta.pod", "meta.node"})
	v.SetDefault("debounce-delay", DebounceDelayValue)
	v.SetDefault("refresh-interval", time.Duration(0))

	v.SetDefault("pattern-limit", PatternLimitValue)
	v.SetDefault("pattern-logs-limit", PatternLogsLimitValue)
	v.SetDefault("context-lines", ContextLinesValue)
	v.SetDefault("trace-cache-max-items", TraceCacheMaxItemsValue)
	v.SetDefault("metrics-summary", map[string]string{})

	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("log-file", "")
	v.SetDefault("log-max-size-mb", 10)
	v.SetDefault("log-max-backups", 5)
	v.SetDefault("log-max-age-days", 28)
	v.SetDefault("log-compress", true)
}
