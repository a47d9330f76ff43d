package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis is a KV backed by a Redis instance.  Keys map one-to-one onto
// Redis string keys with no expiry: the store plays the role of durable
// local storage, not a cache.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an already connected client.  The caller owns the
// client's lifecycle.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
