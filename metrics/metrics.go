// Package metrics provides the small instrumentation counters the analysis
// keeps about its own behavior.
package metrics

import (
	"sort"
	"sync"
)

// MapCounter counts string-keyed events. Callers that need deterministic
// readings across runs reset it at analysis start.
type MapCounter struct {
	name string

	mu     sync.Mutex
	counts map[string]int64
}

func NewMapCounter(name string) *MapCounter {
	return &MapCounter{
		name:   name,
		counts: make(map[string]int64),
	}
}

func (c *MapCounter) Name() string {
	return c.name
}

// Inc increments the count for key.
func (c *MapCounter) Inc(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
}

// Get returns the count for key, 0 if never incremented.
func (c *MapCounter) Get(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// Reset clears all counts.
func (c *MapCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int64)
}

// Keys returns the keys seen so far, sorted.
func (c *MapCounter) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.counts))
	for k := range c.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
