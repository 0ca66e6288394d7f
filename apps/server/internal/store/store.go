// Package store persists serialized table state so a restarted server can
// resume its tables. Values are opaque bytes produced by the engine.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("snapshot not found")

type SnapshotStore interface {
	Save(ctx context.Context, tableID string, data []byte) error
	Load(ctx context.Context, tableID string) ([]byte, error)
	Delete(ctx context.Context, tableID string) error
	Close() error
}

type Options struct {
	// Mode is memory, sqlite or redis.
	Mode       string
	SQLitePath string
	RedisURL   string
	KeyPrefix  string
}

func New(opts Options) (SnapshotStore, string, error) {
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	switch mode {
	case "", "memory", "none":
		return NewMemoryStore(), "memory", nil
	case "sqlite", "local":
		s, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite", nil
	case "redis":
		s, err := NewRedisStore(opts.RedisURL, opts.KeyPrefix)
		if err != nil {
			return nil, "", err
		}
		return s, "redis", nil
	}
	return nil, "", fmt.Errorf("unknown snapshot store %q", opts.Mode)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, tableID string, data []byte) error {
	cp := append([]byte(nil), data...)
	m.mu.Lock()
	m.data[tableID] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, tableID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[tableID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, tableID string) error {
	m.mu.Lock()
	delete(m.data, tableID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
