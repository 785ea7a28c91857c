// Package tokencache stores the calendar access token for the duration of a
// session, under one fixed key, cleared on sign-out.
package tokencache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CredentialKey is the fixed key the access token lives under.
const CredentialKey = "google_access_token"

// Access tokens are short-lived anyway; the cache entry expires with them.
const credentialTTL = time.Hour

// RedisCache keeps the credential in Redis, so a restarted process within the
// token's lifetime keeps its calendar access.
type RedisCache struct {
	client *redis.Client
	key    string
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client, key: CredentialKey}, nil
}

// NewRedisCacheWithClient creates a cache from an existing Redis client.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: CredentialKey}
}

func (c *RedisCache) Save(ctx context.Context, token string) error {
	if err := c.client.Set(ctx, c.key, token, credentialTTL).Err(); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (c *RedisCache) Load(ctx context.Context) (string, error) {
	token, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return token, nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
