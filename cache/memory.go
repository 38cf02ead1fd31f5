package cache

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	gocache "github.com/patrickmn/go-cache"

	"umrahcheck/config"
	"umrahcheck/metrics"
	"umrahcheck/planner"
)

const (
	BackendMemory = config.CacheMemory
	BackendRedis  = config.CacheRedis
)

type entry struct {
	result    *planner.SearchResult
	expiresAt time.Time
}

// Memory keeps results in process. Expiry is checked against the injected
// clock; go-cache's own janitor only reclaims space.
type Memory struct {
	items *gocache.Cache
	clock clock.Clock
}

func NewMemory(defaultTTL time.Duration, clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	return &Memory{
		items: gocache.New(defaultTTL, 10*time.Minute),
		clock: clk,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*planner.SearchResult, bool, error) {
	v, ok := m.items.Get(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues(BackendMemory, "miss").Inc()
		return nil, false, nil
	}
	e := v.(entry)
	if !m.clock.Now().Before(e.expiresAt) {
		m.items.Delete(key)
		metrics.CacheLookups.WithLabelValues(BackendMemory, "expired").Inc()
		return nil, false, nil
	}
	metrics.CacheLookups.WithLabelValues(BackendMemory, "hit").Inc()
	return e.result, true, nil
}

func (m *Memory) Set(_ context.Context, key string, result *planner.SearchResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.items.Set(key, entry{result: result, expiresAt: m.clock.Now().Add(ttl)}, ttl)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}
