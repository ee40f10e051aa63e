// Package cache provides the read-through side cache used by the catalogue
// listing. It is an injected component, not ambient global state: the TTL and
// backend are fixed at construction and handlers receive an instance.
//
// A cache miss must never change the correctness of a response, only its
// latency, so every driver degrades to a no-op when its backend is down.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shashiranjanraj/madina/pkg/metrics"
)

// Cache is a TTL'd key/value store for JSON-marshalable values.
type Cache interface {
	// Get unmarshals the cached value for key into dest.
	// Returns true on a hit, false on miss or error.
	Get(ctx context.Context, key string, dest interface{}) bool

	// Set stores value under key for the TTL configured at construction.
	Set(ctx context.Context, key string, value interface{}) error

	// Del removes one or more keys.
	Del(ctx context.Context, keys ...string) error
}

// ── In-memory driver ─────────────────────────────────────────────────────────

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a process-local TTL cache. Entries are evicted lazily on read.
type Memory struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an in-memory cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) bool {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			m.mu.Lock()
			delete(m.entries, key)
			m.mu.Unlock()
		}
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return false
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("memory").Inc()
	return true
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}
