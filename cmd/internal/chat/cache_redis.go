package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by RecentCache.Get when no entry exists.
var ErrCacheMiss = errors.New("cache miss")

// RecentCache caches the history read path per group. The session handler
// invalidates it after every accepted message. A nil cache disables caching.
type RecentCache interface {
	Get(ctx context.Context, groupID string) ([]StoredMessage, error)
	Set(ctx context.Context, groupID string, msgs []StoredMessage) error
	Invalidate(ctx context.Context, groupID string) error
	Close() error
}

// RedisRecentCache is a RecentCache backed by redis.
type RedisRecentCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisCacheConfig configures the redis history cache.
type RedisCacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisRecentCache connects to redis and verifies connectivity.
func NewRedisRecentCache(cfg RedisCacheConfig) (*RedisRecentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &RedisRecentCache{client: client, prefix: "sharebase:chat:recent", ttl: ttl}, nil
}

func (c *RedisRecentCache) key(groupID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, groupID)
}

// Get returns the cached recent-message window for a group.
func (c *RedisRecentCache) Get(ctx context.Context, groupID string) ([]StoredMessage, error) {
	data, err := c.client.Get(ctx, c.key(groupID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var msgs []StoredMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return msgs, nil
}

// Set stores the recent-message window for a group with the configured TTL.
func (c *RedisRecentCache) Set(ctx context.Context, groupID string, msgs []StoredMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(groupID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate drops the window for a group after a new message is accepted.
func (c *RedisRecentCache) Invalidate(ctx context.Context, groupID string) error {
	if err := c.client.Del(ctx, c.key(groupID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the redis client.
func (c *RedisRecentCache) Close() error {
	return c.client.Close()
}
