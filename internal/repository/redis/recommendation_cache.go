package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const cachePrefix = "reco:"

// RecommendationCache fronts the read endpoints with short-lived cached
// payloads. Every key lives under one prefix so a pipeline run can invalidate
// the whole namespace in one call.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RecommendationCache) TopKey(limit int) string {
	return fmt.Sprintf("%stop:%d", cachePrefix, limit)
}

func (r *RecommendationCache) StatsKey() string {
	return cachePrefix + "stats"
}

func (r *RecommendationCache) CategoryKey(category string) string {
	return cachePrefix + "category:" + category
}

func (r *RecommendationCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}

	return nil
}

func (r *RecommendationCache) Set(ctx context.Context, key string, value interface{}) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}

	return nil
}

// InvalidateAll drops every cached payload. Called after a pipeline run
// replaces the recommendation table so readers never see stale output.
func (r *RecommendationCache) InvalidateAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, cachePrefix+"*", 0).Iterator()

	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	return nil
}
