package cache

import (
	"context"
	"sync"
	"time"
)

// Memory хранилище в памяти процесса
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]entry
	staleFor time.Duration
	now      func() time.Time
}

// NewMemory создает хранилище в памяти. staleFor - сколько держать
// просроченные записи для GetWithStale.
func NewMemory(staleFor time.Duration) *Memory {
	return &Memory{
		entries:  make(map[string]entry),
		staleFor: staleFor,
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	return m.load(key, dst, true)
}

func (m *Memory) GetWithStale(_ context.Context, key string, dst any) (bool, error) {
	return m.load(key, dst, false)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration, cacheType Type) error {
	e, err := newEntry(value, ttl, cacheType, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

// Prune удаляет записи, вышедшие за окно устаревания
func (m *Memory) Prune(_ context.Context) (int64, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key, e := range m.entries {
		if !e.retained(now, m.staleFor) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) load(key string, dst any, freshOnly bool) (bool, error) {
	now := m.now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !e.retained(now, m.staleFor) {
		return false, nil
	}
	if freshOnly && !e.fresh(now) {
		return false, nil
	}
	if err := e.decode(dst); err != nil {
		return false, err
	}
	return true, nil
}
