package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 5

// RedisTable stores JSON encoded values under "<prefix>:<key>".
// A positive TTL is refreshed on every write so idle values expire on their own.
type RedisTable[V any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisTable constructs a table over client. ttl <= 0 disables expiry.
func NewRedisTable[V any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTable[V] {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisTable[V]{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisTable[V]) key(k int64) string {
	return r.prefix + ":" + strconv.FormatInt(k, 10)
}

func (r *RedisTable[V]) decode(raw []byte) (V, error) {
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("session: decode %s: %w", r.prefix, err)
	}
	return v, nil
}

// Get returns the value stored under key.
func (r *RedisTable[V]) Get(ctx context.Context, key int64) (V, bool, error) {
	var zero V
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("session: get %s: %w", r.prefix, err)
	}
	v, err := r.decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Put stores v under key.
func (r *RedisTable[V]) Put(ctx context.Context, key int64, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", r.prefix, err)
	}
	if err := r.client.Set(ctx, r.key(key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: put %s: %w", r.prefix, err)
	}
	return nil
}

// PutIfAbsent stores v with SETNX.
func (r *RedisTable[V]) PutIfAbsent(ctx context.Context, key int64, v V) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("session: encode %s: %w", r.prefix, err)
	}
	ok, err := r.client.SetNX(ctx, r.key(key), raw, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("session: setnx %s: %w", r.prefix, err)
	}
	return ok, nil
}

// Update performs an optimistic WATCH/MULTI read-modify-write.
func (r *RedisTable[V]) Update(ctx context.Context, key int64, fn func(V) (V, error)) (V, error) {
	k := r.key(key)
	var out V
	err := r.watch(ctx, k, func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, k)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			out = cur
			return err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("session: encode %s: %w", r.prefix, err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, raw, r.ttl)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	})
	return out, err
}

// Take removes the value with WATCH/MULTI when check accepts it.
func (r *RedisTable[V]) Take(ctx context.Context, key int64, check func(V) error) (V, error) {
	k := r.key(key)
	var out V
	err := r.watch(ctx, k, func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, k)
		if err != nil {
			return err
		}
		out = cur
		if check != nil {
			if err := check(cur); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, k)
			return nil
		})
		return err
	})
	return out, err
}

// Delete removes key.
func (r *RedisTable[V]) Delete(ctx context.Context, key int64) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("session: del %s: %w", r.prefix, err)
	}
	return nil
}

func (r *RedisTable[V]) load(ctx context.Context, tx *redis.Tx, k string) (V, error) {
	var zero V
	raw, err := tx.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrMissing
	}
	if err != nil {
		return zero, fmt.Errorf("session: get %s: %w", r.prefix, err)
	}
	return r.decode(raw)
}

func (r *RedisTable[V]) watch(ctx context.Context, k string, fn func(tx *redis.Tx) error) error {
	for range maxWatchRetries {
		err := r.client.Watch(ctx, fn, k)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("session: %s: too much contention", r.prefix)
}
