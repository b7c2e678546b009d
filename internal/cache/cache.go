// Package cache keeps analysis results in memory between runs of a long-lived
// process, keyed by a digest of the inputs that produced them.
package cache

import (
	"errors"
	"fmt"

	"github.com/maypok86/otter"
)

// ErrInvalidCapacity is returned when a cache is built with a non-positive capacity.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// Cache is a bounded, concurrency-safe map from input digests to results.
// Eviction follows otter's S3-FIFO policy once capacity is reached.
type Cache[V any] struct {
	entries otter.Cache[uint64, V]
}

// New creates a cache holding at most capacity entries.
func New[V any](capacity int) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	entries, err := otter.MustBuilder[uint64, V](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}

	return &Cache[V]{entries: entries}, nil
}

// Get returns the result stored under digest.
func (c *Cache[V]) Get(digest uint64) (V, bool) {
	return c.entries.Get(digest)
}

// Set stores a result under digest. It reports false when the entry was rejected.
func (c *Cache[V]) Set(digest uint64, value V) bool {
	return c.entries.Set(digest, value)
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.entries.Size()
}

// Stats is a snapshot of hit and miss counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns the cache's hit and miss counters.
func (c *Cache[V]) Stats() Stats {
	s := c.entries.Stats()
	return Stats{Hits: s.Hits(), Misses: s.Misses()}
}

// Close releases the cache's background resources.
func (c *Cache[V]) Close() {
	c.entries.Close()
}
