package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ModeStatic, cfg.Providers.Mode)
	assert.Equal(t, CacheMemory, cfg.Search.CacheBackend)
	assert.Equal(t, 20*time.Second, cfg.Search.Timeout)
	assert.Equal(t, time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, 100, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, int64(2), cfg.Scraper.MaxConcurrent)
	assert.False(t, cfg.Database.Enabled())
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FRONTEND_URL", "https://umrahcheck.de, https://www.umrahcheck.de")
	t.Setenv("PROVIDERS_MODE", "API")
	t.Setenv("AMADEUS_CLIENT_ID", "id")
	t.Setenv("AMADEUS_CLIENT_SECRET", "secret")
	t.Setenv("SEARCH_TIMEOUT", "5s")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/umrah")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://umrahcheck.de", "https://www.umrahcheck.de"}, cfg.Server.FrontendURLs)
	assert.Equal(t, ModeAPI, cfg.Providers.Mode)
	assert.Equal(t, "id", cfg.Amadeus.ClientID)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "postgres://u:p@db:5432/umrah", cfg.Database.DSN())
	assert.True(t, cfg.Database.Enabled())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Search:    SearchConfig{Timeout: time.Second, CacheTTL: time.Minute, CacheBackend: CacheMemory},
			Providers: ProvidersConfig{Mode: ModeStatic},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"static ok", func(c *Config) {}, ""},
		{"unknown mode", func(c *Config) { c.Providers.Mode = "partner" }, "unknown providers.mode"},
		{"api without credentials", func(c *Config) { c.Providers.Mode = ModeAPI }, "requires amadeus.client_id"},
		{"live without scraper", func(c *Config) {
			c.Providers.Mode = ModeLive
			c.Amadeus = AmadeusConfig{ClientID: "a", ClientSecret: "b"}
		}, "requires scraper.base_url"},
		{"redis without address", func(c *Config) { c.Search.CacheBackend = CacheRedis }, "requires redis.address"},
		{"zero timeout", func(c *Config) { c.Search.Timeout = 0 }, "search.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Name: "umrahcheck", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=umrahcheck sslmode=disable", d.DSN())
}

func TestAmadeusConfig_BaseURL(t *testing.T) {
	assert.Equal(t, "https://test.api.amadeus.com", AmadeusConfig{}.BaseURL())
	assert.Equal(t, "https://api.amadeus.com", AmadeusConfig{Env: "production"}.BaseURL())
}
