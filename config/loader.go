package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// legacyEnv binds the flat variable names used by the deployment platform.
var legacyEnv = map[string]string{
	"server.port":                  "PORT",
	"server.gin_mode":              "GIN_MODE",
	"server.frontend_urls":         "FRONTEND_URL",
	"server.rate_limit_per_minute": "RATE_LIMIT",
	"database.url":                 "DATABASE_URL",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.name":                "DB_NAME",
	"database.sslmode":             "DB_SSLMODE",
	"sentry.dsn":                   "SENTRY_DSN",
	"sentry.environment":           "ENVIRONMENT",
	"huggingface.api_key":          "HUGGINGFACE_API_KEY",
	"huggingface.model":            "HF_MODEL",
	"amadeus.env":                  "AMADEUS_ENV",
}

// Load reads .env (if present), an optional config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; production sets variables directly
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.NewReplacer(".", "_").Replace(key)), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so that Unmarshal picks up values that
// only exist in the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.frontend_urls", []string{})
	v.SetDefault("server.rate_limit_per_minute", 100)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("search.timeout", 20*time.Second)
	v.SetDefault("search.cache_ttl", time.Hour)
	v.SetDefault("search.cache_backend", CacheMemory)

	v.SetDefault("providers.mode", ModeStatic)
	v.SetDefault("providers.fallback_to_static", false)

	v.SetDefault("amadeus.client_id", "")
	v.SetDefault("amadeus.client_secret", "")
	v.SetDefault("amadeus.env", "test")

	v.SetDefault("scraper.base_url", "")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; UmrahCheckBot/1.0; +https://umrahcheck.de)")
	v.SetDefault("scraper.timeout", 45*time.Second)
	v.SetDefault("scraper.max_concurrent", 2)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "umrahcheck")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("huggingface.api_key", "")
	v.SetDefault("huggingface.model", "mistralai/Mistral-7B-Instruct-v0.3")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// normalize cleans values that arrive in loose formats from the environment.
func normalize(cfg *Config) {
	// FRONTEND_URL is a comma separated list
	var origins []string
	for _, raw := range cfg.Server.FrontendURLs {
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				origins = append(origins, u)
			}
		}
	}
	cfg.Server.FrontendURLs = origins

	cfg.Providers.Mode = strings.ToLower(strings.TrimSpace(cfg.Providers.Mode))
	cfg.Search.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.Search.CacheBackend))
	cfg.Scraper.BaseURL = strings.TrimRight(cfg.Scraper.BaseURL, "/")
	if cfg.Scraper.MaxConcurrent <= 0 {
		cfg.Scraper.MaxConcurrent = 2
	}
}
