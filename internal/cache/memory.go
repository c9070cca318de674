package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Un mutex propio serializa las operaciones multi-key para que SetMany/Take
// sean atómicas entre sí.
type memoryClient struct {
	prefix string
	mu     sync.Mutex
	c      *gocache.Cache
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string, defaultTTL time.Duration) Client {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(defaultTTL, time.Minute),
	}
}

func (m *memoryClient) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(key)
}

func (m *memoryClient) getLocked(key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (m *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Set(prefixed(m.prefix, key), value, memTTL(ttl))
	return nil
}

func (m *memoryClient) SetMany(_ context.Context, entries map[string]string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.c.Set(prefixed(m.prefix, k), v, memTTL(ttl))
	}
	return nil
}

func (m *memoryClient) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.c.Delete(prefixed(m.prefix, k))
	}
	return nil
}

func (m *memoryClient) Take(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, err := m.getLocked(k); err == nil {
			out[k] = v
		}
		m.c.Delete(prefixed(m.prefix, k))
	}
	return out, nil
}

func (m *memoryClient) Ping(context.Context) error { return nil }

func (m *memoryClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Flush()
	return nil
}

// memTTL traduce la convención "0 = no expira" del Client a go-cache.
func memTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
