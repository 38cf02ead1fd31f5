package config

import (
	"fmt"
	"time"
)

// Provider modes select which candidate sources back a search.
const (
	ModeStatic = "static"
	ModeAPI    = "api"
	ModeLive   = "live"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the main application configuration struct.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Search      SearchConfig      `mapstructure:"search"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Amadeus     AmadeusConfig     `mapstructure:"amadeus"`
	Scraper     ScraperConfig     `mapstructure:"scraper"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port               string        `mapstructure:"port"`
	GinMode            string        `mapstructure:"gin_mode"`
	FrontendURLs       []string      `mapstructure:"frontend_urls"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

type SearchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheBackend string        `mapstructure:"cache_backend"`
}

type ProvidersConfig struct {
	Mode             string `mapstructure:"mode"`
	FallbackToStatic bool   `mapstructure:"fallback_to_static"`
}

type AmadeusConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Env          string `mapstructure:"env"` // "test" or "production"
}

// BaseURL returns the Amadeus host for the configured environment.
func (a AmadeusConfig) BaseURL() string {
	if a.Env == "" || a.Env == "test" {
		return "https://test.api.amadeus.com"
	}
	return "https://api.amadeus.com"
}

type ScraperConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN prefers a full DATABASE_URL and falls back to the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Enabled reports whether any connection settings were provided.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type HuggingFaceConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks cross-field constraints after defaults were applied.
func (c *Config) Validate() error {
	switch c.Providers.Mode {
	case ModeStatic:
	case ModeAPI, ModeLive:
		if c.Amadeus.ClientID == "" || c.Amadeus.ClientSecret == "" {
			return fmt.Errorf("providers.mode %q requires amadeus.client_id and amadeus.client_secret", c.Providers.Mode)
		}
		if c.Providers.Mode == ModeLive && c.Scraper.BaseURL == "" {
			return fmt.Errorf("providers.mode %q requires scraper.base_url", c.Providers.Mode)
		}
	default:
		return fmt.Errorf("unknown providers.mode %q", c.Providers.Mode)
	}

	switch c.Search.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("search.cache_backend %q requires redis.address", CacheRedis)
		}
	default:
		return fmt.Errorf("unknown search.cache_backend %q", c.Search.CacheBackend)
	}

	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive")
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("search.cache_ttl must be positive")
	}
	return nil
}
