package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	feedKeyPrefix = "stintstats:feed:"
	processedKey  = "stintstats:processed"
)

// RedisCache keeps raw feeds with a TTL and the set of processed game ids.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and pings it. Feeds expire after ttl
// (zero keeps them forever).
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Name implements FeedStore.
func (rc *RedisCache) Name() string {
	return "redis"
}

// GetFeed returns a cached raw feed.
func (rc *RedisCache) GetFeed(ctx context.Context, gameID string) ([]byte, bool, error) {
	data, err := rc.client.Get(ctx, feedKeyPrefix+gameID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get feed %s: %w", gameID, err)
	}
	return data, true, nil
}

// PutFeed caches a raw feed.
func (rc *RedisCache) PutFeed(ctx context.Context, gameID string, data []byte) error {
	if err := rc.client.Set(ctx, feedKeyPrefix+gameID, data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis set feed %s: %w", gameID, err)
	}
	return nil
}

// DeleteFeed drops a cached feed.
func (rc *RedisCache) DeleteFeed(ctx context.Context, gameID string) error {
	return rc.client.Del(ctx, feedKeyPrefix+gameID).Err()
}

// MarkProcessed records game ids whose results were stored.
func (rc *RedisCache) MarkProcessed(ctx context.Context, gameIDs ...string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(gameIDs))
	for i, id := range gameIDs {
		members[i] = id
	}
	return rc.client.SAdd(ctx, processedKey, members...).Err()
}

// IsProcessed reports whether a game id was marked processed.
func (rc *RedisCache) IsProcessed(ctx context.Context, gameID string) (bool, error) {
	return rc.client.SIsMember(ctx, processedKey, gameID).Result()
}

// ProcessedGames returns every processed game id.
func (rc *RedisCache) ProcessedGames(ctx context.Context) ([]string, error) {
	return rc.client.SMembers(ctx, processedKey).Result()
}

// ForgetProcessed clears the processed set, for full reloads.
func (rc *RedisCache) ForgetProcessed(ctx context.Context) error {
	return rc.client.Del(ctx, processedKey).Err()
}
