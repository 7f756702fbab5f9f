/*
cache.go - Short-lived memoization of computed balances and statistics

PURPOSE:
  Balance and statistics calculations walk up to a year of days per request.
  Results are memoized per (user, kind, parameters) for a short TTL and
  dropped for a user whenever that user's data changes.

  The cache is never a source of truth. A miss always means "recompute",
  and invalidating an absent key is a no-op.

KEY FORMAT:
  <escaped user id>:<kind>:<json params>
  Invalidate(user) removes every key with the "<escaped user id>:" prefix.

IMPLEMENTATIONS:
  - Memory (this file): process-local map, lazy eviction + Sweep()
  - cache/redis: shared across processes, TTL enforced by Redis

SEE ALSO:
  - overtime/service.go: typed wrapper and invalidation on mutation
  - api/scheduler.go: periodic Sweep()
*/
package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a computed result stays valid.
const DefaultTTL = 5 * time.Minute

// Cache stores opaque computed results.
type Cache interface {
	// Get returns the value and true on a fresh hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl. A ttl <= 0 uses the implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes every key belonging to userID.
	Invalidate(ctx context.Context, userID string) error

	// InvalidateAll clears the cache.
	InvalidateAll(ctx context.Context) error
}

// Key builds a deterministic key. params must be JSON-encodable; struct
// fields encode in declaration order, so equal params give equal keys.
func Key(userID, kind string, params any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = []byte("null")
	}
	return UserPrefix(userID) + kind + ":" + string(raw)
}

// UserPrefix is the key prefix shared by all of a user's entries.
// The id is escaped so "a" never matches keys of user "a:b".
func UserPrefix(userID string) string {
	return url.QueryEscape(userID) + ":"
}

// =============================================================================
// MEMORY - process-local implementation
// =============================================================================

type item struct {
	value      []byte
	computedAt time.Time
	ttl        time.Duration
}

func (it item) expired(now time.Time) bool {
	return now.Sub(it.computedAt) >= it.ttl
}

// Memory is a concurrency-safe TTL map.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
	now   func() time.Time
}

var _ Cache = (*Memory)(nil)

// Option configures a Memory cache.
type Option func(*Memory)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		items: make(map[string]item),
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get removes the entry when it is stale.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	now := m.now()
	if !it.expired(now) {
		return it.value, true, nil
	}

	m.mu.Lock()
	// Re-check: a concurrent Set may have refreshed it.
	if cur, ok := m.items[key]; ok && cur.expired(now) {
		delete(m.items, key)
	}
	m.mu.Unlock()
	return nil, false, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = item{value: value, computedAt: m.now(), ttl: ttl}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, userID string) error {
	prefix := UserPrefix(userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *Memory) InvalidateAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.items)
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, it := range m.items {
		if it.expired(now) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
