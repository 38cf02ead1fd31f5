package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"umrahcheck/config"
	"umrahcheck/metrics"
	"umrahcheck/planner"
)

const keyPrefix = "umrahcheck:search:"

// Redis shares results between instances. Entries are JSON with a native TTL.
type Redis struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (*planner.SearchResult, bool, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(BackendRedis, "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(BackendRedis, "error").Inc()
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result planner.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		metrics.CacheLookups.WithLabelValues(BackendRedis, "error").Inc()
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	metrics.CacheLookups.WithLabelValues(BackendRedis, "hit").Inc()
	return &result, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, result *planner.SearchResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
