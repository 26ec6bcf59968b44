package utils

import (
	"sync"
	"time"
)

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLMap is a concurrent map whose entries expire after a period without
// being written or loaded through GetOrCreate.
type TTLMap[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]ttlEntry[V]
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewTTLMap creates a map with the given entry lifetime and starts a
// background sweep that runs once per lifetime until Stop.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	m := newTTLMap[K, V](ttl, time.Now)
	go m.sweepLoop()
	return m
}

func newTTLMap[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLMap[K, V] {
	return &TTLMap[K, V]{
		entries: make(map[K]ttlEntry[V]),
		ttl:     ttl,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Get returns the live value for key.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !m.now().Before(entry.expiresAt) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// GetOrCreate returns the live value for key, storing create() first when
// there is none. Either way the entry's lifetime restarts.
func (m *TTLMap[K, V]) GetOrCreate(key K, create func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry.value = create()
	}
	entry.expiresAt = now.Add(m.ttl)
	m.entries[key] = entry
	return entry.value
}

// Set stores value under key with a fresh lifetime.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = ttlEntry[V]{value: value, expiresAt: m.now().Add(m.ttl)}
}

// Delete removes key.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len counts stored entries, including expired ones not yet swept.
func (m *TTLMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stop ends the background sweep. Safe to call more than once.
func (m *TTLMap[K, V]) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *TTLMap[K, V]) sweepLoop() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *TTLMap[K, V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}
