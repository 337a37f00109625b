package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when the requested key is not cached
var ErrCacheMiss = errors.New("cache: key not found")

const (
	matchKeyPrefix  = "match:"
	matchVersionKey = "match:version"
	matchCacheTag   = "match_results"
	dialTimeout     = 5 * time.Second
)

// RedisConfig holds the connection settings shared by Redis-backed components
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a go-redis client and verifies it with a ping
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  dialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// MatchCache stores ranked match results per student and limit. Entries are
// namespaced by a generation counter so InvalidateAll is a single INCR.
type MatchCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewMatchCache creates a match cache with the given TTL in seconds
func NewMatchCache(client redis.UniversalClient, ttlSeconds int) *MatchCache {
	if ttlSeconds <= 0 {
		ttlSeconds = 60
	}
	return &MatchCache{client: client, ttl: time.Duration(ttlSeconds) * time.Second}
}

// Get returns the cached results or ErrCacheMiss
func (mc *MatchCache) Get(ctx context.Context, studentID string, limit int) ([]models.CompatibilityResult, error) {
	key, err := mc.key(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}

	data, err := mc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues(matchCacheTag).Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read match cache: %w", err)
	}

	var results []models.CompatibilityResult
	if err := json.Unmarshal(data, &results); err != nil {
		logger.Warn("Dropping undecodable match cache entry", zap.String("key", key), zap.Error(err))
		_ = mc.client.Del(ctx, key).Err()
		metrics.CacheMisses.WithLabelValues(matchCacheTag).Inc()
		return nil, ErrCacheMiss
	}

	metrics.CacheHits.WithLabelValues(matchCacheTag).Inc()
	return results, nil
}

// Set stores results for the student and limit
func (mc *MatchCache) Set(ctx context.Context, studentID string, limit int, results []models.CompatibilityResult) error {
	key, err := mc.key(ctx, studentID, limit)
	if err != nil {
		return err
	}

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode match results: %w", err)
	}
	if err := mc.client.Set(ctx, key, data, mc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write match cache: %w", err)
	}
	return nil
}

// InvalidateAll makes every cached result unreachable; old generations
// expire on their own TTL
func (mc *MatchCache) InvalidateAll(ctx context.Context) error {
	if err := mc.client.Incr(ctx, matchVersionKey).Err(); err != nil {
		return fmt.Errorf("failed to bump match cache generation: %w", err)
	}
	return nil
}

func (mc *MatchCache) key(ctx context.Context, studentID string, limit int) (string, error) {
	version, err := mc.client.Get(ctx, matchVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read match cache generation: %w", err)
	}
	return fmt.Sprintf("%s%d:%s:%d", matchKeyPrefix, version, studentID, limit), nil
}
