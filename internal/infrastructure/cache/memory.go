package cache

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/viccon/sturdyc"

	"contentd/internal/ports/output"
)

var _ output.ContentCache = (*Memory)(nil)

const (
	statsKeyLimit      = 20
	capacity           = 10000
	numShards          = 16
	evictionPercentage = 10

	// sturdyc always stamps an expiry; a century stands in for "never".
	noExpiry = 100 * 365 * 24 * time.Hour
)

// Option configures a Memory cache.
type Option func(*settings)

type settings struct {
	clock         sturdyc.Clock
	sweepInterval time.Duration
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock sturdyc.Clock) Option {
	return func(s *settings) { s.clock = clock }
}

// WithSweepInterval sets how often expired entries are evicted.
func WithSweepInterval(d time.Duration) Option {
	return func(s *settings) { s.sweepInterval = d }
}

// Memory is a process-wide TTL cache backed by sturdyc. Values are treated as
// immutable once stored; writers racing on one key both store an equal value
// and the last one wins.
type Memory struct {
	client *sturdyc.Client[any]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemory creates a cache whose entries expire ttl after being stored.
// A ttl <= 0 keeps entries until they are deleted or cleared.
func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if ttl <= 0 {
		ttl = noExpiry
	}

	var sopts []sturdyc.Option
	if s.clock != nil {
		sopts = append(sopts, sturdyc.WithClock(s.clock))
	}
	if s.sweepInterval > 0 {
		sopts = append(sopts, sturdyc.WithEvictionInterval(s.sweepInterval))
	}
	return &Memory{
		client: sturdyc.New[any](capacity, numShards, ttl, evictionPercentage, sopts...),
	}
}

// Get is a pure lookup: an expired entry is reported as a miss and left for
// the eviction loop or the next Put.
func (m *Memory) Get(key output.CacheKey) (any, bool) {
	v, ok := m.client.Get(key.String())
	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return v, true
}

func (m *Memory) Put(key output.CacheKey, value any) {
	m.client.Set(key.String(), value)
}

func (m *Memory) Delete(key output.CacheKey) {
	m.client.Delete(key.String())
}

// Clear removes every entry and returns how many there were.
func (m *Memory) Clear() int {
	keys := m.client.ScanKeys()
	for _, k := range keys {
		m.client.Delete(k)
	}
	return len(keys)
}

func (m *Memory) Stats() output.CacheStats {
	var keys []string
	for _, k := range m.client.ScanKeys() {
		if _, ok := m.client.Get(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	hits, misses := m.hits.Load(), m.misses.Load()
	stats := output.CacheStats{
		Entries: len(keys),
		Hits:    hits,
		Misses:  misses,
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	if len(keys) > statsKeyLimit {
		keys = keys[:statsKeyLimit]
	}
	if keys == nil {
		keys = []string{}
	}
	stats.Keys = keys
	return stats
}
