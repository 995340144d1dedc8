package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores values as plain Redis strings without expiry
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisBackend wraps an existing client. keyPrefix isolates this
// application's keys from other users of the same database.
func NewRedisBackend(client *redis.Client, keyPrefix string) *RedisBackend {
	return &RedisBackend{client: client, keyPrefix: keyPrefix}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// maxUpdateAttempts bounds optimistic retries when another writer races us
const maxUpdateAttempts = 10

// ErrUpdateConflict is returned when a key kept changing during an update
var ErrUpdateConflict = errors.New("concurrent update conflict")

// Update runs fn under WATCH and commits with MULTI/EXEC, retrying when the
// key changed in between
func (r *RedisBackend) Update(ctx context.Context, key string, fn func(raw []byte, found bool) ([]byte, error)) error {
	full := r.keyPrefix + key

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, full).Bytes()
		found := true
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return fmt.Errorf("redis get: %w", err)
			}
			raw, found = nil, false
		}

		next, err := fn(raw, found)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %s: %w", key, ErrUpdateConflict)
}
