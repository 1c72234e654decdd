package reconcile

import (
	"sort"
	"time"
)

const (
	// DefaultMaxAge is how long a cached status stays valid.
	DefaultMaxAge = 300_000 * time.Millisecond
	// DefaultCapacity bounds the number of cached statuses.
	DefaultCapacity = 100
)

type cacheEntry struct {
	status Status
	at     time.Time
	pass   uint64
}

// statusCache maps plugin names to their last computed status. It is not
// safe for concurrent use; the Reconciler guards it.
type statusCache struct {
	entries  map[string]cacheEntry
	maxAge   time.Duration
	capacity int
}

func newStatusCache(maxAge time.Duration, capacity int) *statusCache {
	return &statusCache{
		entries:  make(map[string]cacheEntry),
		maxAge:   maxAge,
		capacity: capacity,
	}
}

func (c *statusCache) get(name string) (cacheEntry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// merge stores status unless the cached entry comes from a newer pass.
func (c *statusCache) merge(name string, status Status, at time.Time, pass uint64) bool {
	if old, ok := c.entries[name]; ok && old.pass > pass {
		return false
	}
	c.entries[name] = cacheEntry{status: status, at: at, pass: pass}
	return true
}

// cleanup drops entries older than maxAge, then the oldest entries until at
// most capacity remain. It returns the number of evicted entries.
func (c *statusCache) cleanup(now time.Time) int {
	evicted := 0
	for name, e := range c.entries {
		if now.Sub(e.at) > c.maxAge {
			delete(c.entries, name)
			evicted++
		}
	}

	over := len(c.entries) - c.capacity
	if over <= 0 {
		return evicted
	}

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return c.entries[names[i]].at.Before(c.entries[names[j]].at)
	})
	for _, name := range names[:over] {
		delete(c.entries, name)
		evicted++
	}
	return evicted
}

func (c *statusCache) clear() {
	c.entries = make(map[string]cacheEntry)
}

func (c *statusCache) snapshot() map[string]Status {
	out := make(map[string]Status, len(c.entries))
	for name, e := range c.entries {
		out[name] = e.status
	}
	return out
}

func (c *statusCache) size() int {
	return len(c.entries)
}
