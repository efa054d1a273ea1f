package fractal

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// DefaultCapacity is the number of named results a Generator keeps.
const DefaultCapacity = 5

// ResultCache maps fractal names to generated point sequences and keeps at
// most a fixed number of them.
//
// Entries are ordered by insertion and the oldest inserted entry is evicted
// first. Reads never reorder entries: the backing list is only consulted
// through Peek and Contains, so recency in the list is insertion order.
//
// ResultCache is not safe for concurrent use; Generator serializes access.
type ResultCache struct {
	entries  *simplelru.LRU[string, ifs.PointSequence]
	capacity int
}

// NewResultCache creates a cache holding up to capacity entries.
// A capacity below 1 falls back to DefaultCapacity.
func NewResultCache(capacity int) *ResultCache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	// NewLRU only fails for a non-positive size.
	entries, _ := simplelru.NewLRU[string, ifs.PointSequence](capacity, nil)
	return &ResultCache{entries: entries, capacity: capacity}
}

// Get returns the sequence stored under name without affecting eviction order.
func (c *ResultCache) Get(name string) (ifs.PointSequence, bool) {
	return c.entries.Peek(name)
}

// Contains reports whether name is cached.
func (c *ResultCache) Contains(name string) bool {
	return c.entries.Contains(name)
}

// Add stores points under name as the newest entry. If the cache is full,
// the oldest inserted entry is removed and its name returned.
//
// Adding a name that is already present replaces its value and moves it to
// the newest position, exactly as if it had been removed and re-inserted.
func (c *ResultCache) Add(name string, points ifs.PointSequence) (evicted string, ok bool) {
	if !c.entries.Contains(name) && c.entries.Len() >= c.capacity {
		evicted, _, ok = c.entries.RemoveOldest()
	}
	c.entries.Add(name, points)
	return evicted, ok
}

// Remove deletes name and reports whether it was present.
func (c *ResultCache) Remove(name string) bool {
	return c.entries.Remove(name)
}

// Purge removes every entry.
func (c *ResultCache) Purge() {
	c.entries.Purge()
}

// Names returns the cached names from oldest to newest.
func (c *ResultCache) Names() []string {
	return c.entries.Keys()
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Capacity returns the maximum number of entries.
func (c *ResultCache) Capacity() int {
	return c.capacity
}
