package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis хранилище в Redis. Срок годности хранится внутри значения,
// а сам ключ живет дольше на окно устаревания.
type Redis struct {
	client   *redis.Client
	prefix   string
	staleFor time.Duration
	now      func() time.Time
}

// NewRedis создает хранилище поверх клиента Redis
func NewRedis(client *redis.Client, prefix string, staleFor time.Duration) *Redis {
	return &Redis{
		client:   client,
		prefix:   prefix,
		staleFor: staleFor,
		now:      time.Now,
	}
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	return r.load(ctx, key, dst, true)
}

func (r *Redis) GetWithStale(ctx context.Context, key string, dst any) (bool, error) {
	return r.load(ctx, key, dst, false)
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration, cacheType Type) error {
	e, err := newEntry(value, ttl, cacheType, r.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	// Нулевое окно устаревания: ключ хранится без срока
	var expiration time.Duration
	if r.staleFor > 0 {
		expiration = ttl + r.staleFor
	}

	if err := r.client.Set(ctx, r.prefix+key, data, expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) load(ctx context.Context, key string, dst any, freshOnly bool) (bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	if freshOnly && !e.fresh(r.now()) {
		return false, nil
	}
	if err := e.decode(dst); err != nil {
		return false, err
	}
	return true, nil
}
