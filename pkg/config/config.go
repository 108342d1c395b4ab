// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Content, CORS, Cache, RateLimit, Site, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Content   ContentConfig   `yaml:"content"`
	CORS      CORSConfig      `yaml:"cors"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Site      SiteConfig      `yaml:"site"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig describes where posts live and how they are loaded.
type ContentConfig struct {
	PostsDir      string `yaml:"postsDir"`
	DefaultLang   string `yaml:"defaultLang"`
	Extension     string `yaml:"extension"`
	IngestWorkers int    `yaml:"ingestWorkers"`
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowOrigins        []string `yaml:"allowOrigins"`
	AllowOriginSuffixes []string `yaml:"allowOriginSuffixes"`
	FallbackOrigin      string   `yaml:"fallbackOrigin"`
	AllowMethods        []string `yaml:"allowMethods"`
	AllowHeaders        []string `yaml:"allowHeaders"`
	MaxAge              int      `yaml:"maxAge"`
}

// CacheConfig sets the Cache-Control max-age advertised to clients.
type CacheConfig struct {
	APIMaxAge     time.Duration `yaml:"apiMaxAge"`
	SitemapMaxAge time.Duration `yaml:"sitemapMaxAge"`
}

// RateLimitConfig controls per-client request throttling. A zero
// RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// SiteConfig describes the public site used when building absolute URLs.
type SiteConfig struct {
	URL         string `yaml:"url"`
	Environment string `yaml:"environment"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Content.PostsDir == "" {
		return fmt.Errorf("content postsDir must not be empty")
	}
	if c.Content.DefaultLang == "" {
		return fmt.Errorf("content defaultLang must not be empty")
	}
	if !strings.HasPrefix(c.Content.Extension, ".") {
		return fmt.Errorf("content extension %q must start with a dot", c.Content.Extension)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rateLimit requestsPerSecond must not be negative")
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3002,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Content: ContentConfig{
			PostsDir:      "../server/posts",
			DefaultLang:   "zh",
			Extension:     ".md",
			IngestWorkers: 8,
		},
		CORS: CORSConfig{
			AllowOrigins:        []string{"*"},
			AllowOriginSuffixes: nil,
			FallbackOrigin:      "",
			AllowMethods:        []string{"GET", "OPTIONS"},
			AllowHeaders:        []string{"Content-Type", "X-Request-ID", "If-None-Match"},
			MaxAge:              86400,
		},
		Cache: CacheConfig{
			APIMaxAge:     5 * time.Minute,
			SitemapMaxAge: time.Hour,
		},
		Site: SiteConfig{
			Environment: "development",
			Name:        "EIHR Blog API",
			Version:     "1.0.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PS_* environment variables, plus SITE_URL and
// ENVIRONMENT, and overrides the corresponding fields. The bare POSTS_DIR,
// HOST and PORT names are bound to command-line flags instead.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_CONTENT_POSTS_DIR"); v != "" {
		cfg.Content.PostsDir = v
	}
	if v := os.Getenv("PS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PS_CONTENT_DEFAULT_LANG"); v != "" {
		cfg.Content.DefaultLang = v
	}
	if v := os.Getenv("PS_CONTENT_INGEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Content.IngestWorkers = n
		}
	}
	if v := os.Getenv("PS_CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_CORS_ALLOW_ORIGIN_SUFFIXES"); v != "" {
		cfg.CORS.AllowOriginSuffixes = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_CORS_FALLBACK_ORIGIN"); v != "" {
		cfg.CORS.FallbackOrigin = v
	}
	if v := os.Getenv("PS_RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("PS_RATE_LIMIT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = burst
		}
	}
	if v := firstEnv("PS_SITE_URL", "SITE_URL"); v != "" {
		cfg.Site.URL = v
	}
	if v := firstEnv("PS_SITE_ENVIRONMENT", "ENVIRONMENT"); v != "" {
		cfg.Site.Environment = v
	}
	if v := os.Getenv("PS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PS_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("PS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
