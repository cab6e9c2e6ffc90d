package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type memItem struct {
	value     string
	expiresAt time.Time
}

// Memory — потокобезопасная in-memory реализация KV.
// Просроченные записи не видны через Get и удаляются Sweep.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

// NewMemory создаёт пустое in-memory хранилище.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memItem),
		now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok {
		return "", false, nil
	}

	if !m.now().Before(it.expiresAt) {
		delete(m.items, key)
		return "", false, nil
	}

	return it.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.set(key, value, ttl)
	return nil
}

// SetMany пишет записи под одной блокировкой.
func (m *Memory) SetMany(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		m.set(e.Key, e.Value, e.TTL)
	}

	return nil
}

func (m *Memory) set(key, value string, ttl time.Duration) {
	// Неположительный TTL трактуем как немедленное истечение (как EXPIRE в Redis).
	if ttl <= 0 {
		delete(m.items, key)
		return
	}

	m.items[key] = memItem{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.items, k)
	}

	return nil
}

// Len возвращает число непросроченных записей.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	now := m.now()
	for _, it := range m.items {
		if now.Before(it.expiresAt) {
			n++
		}
	}

	return n
}

// Sweep удаляет просроченные записи и возвращает их число.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	now := m.now()
	for k, it := range m.items {
		if !now.Before(it.expiresAt) {
			delete(m.items, k)
			n++
		}
	}

	return n
}

// StartJanitor периодически вызывает Sweep до отмены ctx.
func (m *Memory) StartJanitor(ctx context.Context, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := m.Sweep(); n > 0 {
					log.Debug("memory_cache_swept", slog.Int("removed", n))
				}
			}
		}
	}()
}

var (
	_ KV          = (*Memory)(nil)
	_ BatchSetter = (*Memory)(nil)
)
