package cache

import (
	"context"
	"fmt"
	"time"
)

// Revocation — кэш живых пар токенов.
//
// Для пары хранятся две записи: access -> refresh (TTL access-токена) и
// refresh -> access (TTL refresh-токена). Отсутствие токена в кэше означает
// немедленный отзыв независимо от срока, зашитого в сам токен.
type Revocation struct {
	kv KV
}

// NewRevocation создаёт кэш отзыва поверх KV.
func NewRevocation(kv KV) *Revocation {
	return &Revocation{kv: kv}
}

// Record сохраняет пару в обоих направлениях.
func (r *Revocation) Record(ctx context.Context, access, refresh string, accessTTL, refreshTTL time.Duration) error {
	const op = "cache.Revocation.Record"

	if bs, ok := r.kv.(BatchSetter); ok {
		if err := bs.SetMany(ctx,
			Entry{Key: access, Value: refresh, TTL: accessTTL},
			Entry{Key: refresh, Value: access, TTL: refreshTTL},
		); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	}

	if err := r.kv.Set(ctx, access, refresh, accessTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.kv.Set(ctx, refresh, access, refreshTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Exists сообщает, жив ли токен (access или refresh).
func (r *Revocation) Exists(ctx context.Context, tok string) (bool, error) {
	const op = "cache.Revocation.Exists"

	if tok == "" {
		return false, nil
	}

	_, ok, err := r.kv.Get(ctx, tok)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// Revoke удаляет access-токен и связанный с ним refresh-токен.
// Отсутствующий токен — не ошибка.
func (r *Revocation) Revoke(ctx context.Context, access string) error {
	const op = "cache.Revocation.Revoke"

	if access == "" {
		return nil
	}

	refresh, ok, err := r.kv.Get(ctx, access)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	keys := []string{access}
	if ok && refresh != "" {
		keys = append(keys, refresh)
	}

	if err := r.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
