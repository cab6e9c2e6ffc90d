// cache — key-value хранилище с TTL и кэш отзыва токенов поверх него.
//
// KV — минимальная возможность get/set/delete; реализации: Redis (go-redis)
// и in-memory (для тестов и драйвера memory). Revocation хранит живые пары
// токенов и является единственным источником истины об их валидности.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV — контракт key-value хранилища с TTL.
type KV interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set сохраняет значение с TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del удаляет ключи; отсутствующие ключи игнорируются.
	Del(ctx context.Context, keys ...string) error
}

// Entry — одна запись для пакетной записи.
type Entry struct {
	Key   string
	Value string
	TTL   time.Duration
}

// BatchSetter — необязательное расширение KV: атомарная запись нескольких ключей.
type BatchSetter interface {
	SetMany(ctx context.Context, entries ...Entry) error
}

// RedisKV — реализация KV на Redis.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:tok:".
func NewRedis(ctx context.Context, redisURL, prefix string) (*RedisKV, error) {
	const op = "cache.NewRedis"

	if prefix == "" {
		prefix = "auth:tok:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisKV{rdb: rdb, prefix: prefix}, nil
}

func (c *RedisKV) key(k string) string { return c.prefix + k }

func (c *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "cache.RedisKV.Get"

	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return v, true, nil
}

func (c *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "cache.RedisKV.Set"

	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetMany пишет записи одной транзакцией (MULTI/EXEC).
func (c *RedisKV) SetMany(ctx context.Context, entries ...Entry) error {
	const op = "cache.RedisKV.SetMany"

	pipe := c.rdb.TxPipeline()
	for _, e := range entries {
		pipe.Set(ctx, c.key(e.Key), e.Value, e.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *RedisKV) Del(ctx context.Context, keys ...string) error {
	const op = "cache.RedisKV.Del"

	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}

	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Ping проверяет доступность Redis (readiness).
func (c *RedisKV) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (c *RedisKV) Close() error { return c.rdb.Close() }

var (
	_ KV          = (*RedisKV)(nil)
	_ BatchSetter = (*RedisKV)(nil)
)
