package tokenstore

import (
	"context"
	"sync"
)

// Memory is an ephemeral store backed by sync.Map. Values vanish with the
// process; it backs tests and the "memory" storage backend.
type Memory struct {
	values sync.Map // key -> string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.values.Store(key, value)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.values.Delete(key)
	return nil
}

func (m *Memory) Close() error { return nil }
