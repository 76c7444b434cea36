// internal/session/redis.go
//
// Redis backend on go-redis.  Each sid is one hash `jobboard:sess:<sid>`
// whose TTL slides forward on every read and write.

package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jobboard:sess:"

// Redis stores sessions as hashes with a sliding expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client.  ttl bounds how long an untouched session lives.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(sid string) string { return redisKeyPrefix + sid }

func (r *Redis) Get(ctx context.Context, sid, key string) (string, bool, error) {
	pipe := r.client.Pipeline()
	get := pipe.HGet(ctx, redisKey(sid), key)
	pipe.Expire(ctx, redisKey(sid), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return "", false, err
	}
	v, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, sid, key, val string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, redisKey(sid), key, val)
	pipe.Expire(ctx, redisKey(sid), r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Remove(ctx context.Context, sid string, keys ...string) error {
	return r.client.HDel(ctx, redisKey(sid), keys...).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
