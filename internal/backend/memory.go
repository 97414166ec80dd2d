package backend

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (b *MemoryBackend) Type() BackendType                 { return BackendMemory }
func (b *MemoryBackend) GetLocation() string               { return "memory" }
func (b *MemoryBackend) SetLocation(location string) error { return nil }
func (b *MemoryBackend) Init(ctx context.Context) error    { return nil }
func (b *MemoryBackend) Close() error                      { return nil }

// Read returns a copy of the value stored under key
func (b *MemoryBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Write stores a copy of data under key
func (b *MemoryBackend) Write(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = append([]byte(nil), data...)
	return nil
}

// Exists returns true if key has a value
func (b *MemoryBackend) Exists(ctx context.Context, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.values[key]
	return ok
}
