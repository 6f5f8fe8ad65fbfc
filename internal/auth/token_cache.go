package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ownerTokenPrefix namespaces issued-token keys in Redis.
const ownerTokenPrefix = "owner_token:"

// RedisTokenCache tracks issued owner tokens so logout can revoke a
// token before its JWT expiry.
type RedisTokenCache struct {
	Client *redis.Client
}

// NewRedisTokenCache creates a new Redis token cache
func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{
		Client: client,
	}
}

// Store registers a freshly issued token under its JTI.
func (c *RedisTokenCache) Store(ctx context.Context, jti string, ttl time.Duration) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return c.Client.Set(ctx, ownerTokenPrefix+jti, "1", ttl).Err()
}

// IsActive reports whether a token is still registered (not revoked,
// not expired).
func (c *RedisTokenCache) IsActive(ctx context.Context, jti string) (bool, error) {
	if c.Client == nil {
		return false, fmt.Errorf("redis client not initialized")
	}
	_, err := c.Client.Get(ctx, ownerTokenPrefix+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token in Redis: %w", err)
	}
	return true, nil
}

// Revoke drops a token at logout.
func (c *RedisTokenCache) Revoke(ctx context.Context, jti string) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return c.Client.Del(ctx, ownerTokenPrefix+jti).Err()
}
