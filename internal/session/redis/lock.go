package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds occupancy locks for tables. A lock maps the table name to
// the session holding it, so a stale unlock from an already-closed
// session cannot free a table somebody else re-locked.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		// Sessions run for hours; the TTL is only a safety net against
		// leaked locks after a crash.
		ttl = 12 * time.Hour
	}
	return &Redis{Client: client, TTL: ttl}
}

func tableKey(table string) string {
	return "table_lock:" + table
}

// CheckTableAvailability reports whether a table is free without
// locking it.
func (r *Redis) CheckTableAvailability(table string) (bool, error) {
	_, err := r.Client.Get(context.Background(), tableKey(table)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (r *Redis) LockTable(table, sessionID string) (bool, error) {
	ok, err := r.Client.SetNX(context.Background(), tableKey(table), sessionID, r.TTL).Result()
	return ok, err
}

func (r *Redis) UnlockTable(table, sessionID string) error {
	ctx := context.Background()
	key := tableKey(table)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val == sessionID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return fmt.Errorf("table %s locked by a different session", table)
}
