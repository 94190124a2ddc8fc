package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/modeflow/request"
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Size        int   `json:"size"`
}

// MemoryCache is an in-memory, TTL-expiring, LRU-evicting cache.
//
// Recency lives on the entry itself, so a key has a recency record exactly
// when it has an entry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	policy  Policy
	seq     uint64
	stats   Stats
	now     func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

type cacheEntry struct {
	key        string
	response   request.Response
	meta       EntryMeta
	createdAt  time.Time
	expiresAt  time.Time
	lastAccess time.Time
	seq        uint64 // insertion order, breaks recency ties
}

// NewMemoryCache creates a new in-memory cache with the given policy.
// Call Start to run the periodic sweep.
func NewMemoryCache(policy Policy) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		policy:  policy,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Policy returns the policy the cache was built with.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// Get returns a copy of a live entry and refreshes its recency.
// Expired entries are removed on lookup.
func (c *MemoryCache) Get(_ context.Context, key string) (request.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return request.Response{}, false
	}

	now := c.now()
	if !now.Before(entry.expiresAt) {
		delete(c.entries, key)
		c.stats.Expirations++
		c.stats.Misses++
		return request.Response{}, false
	}

	entry.lastAccess = now
	c.stats.Hits++
	return entry.response.Clone(), true
}

// Set stores a copy of resp. A full cache evicts its least recently
// accessed entry first. Sentinel-keyed entries get Policy.SentinelTTL and
// are capped at Policy.MaxSentinelEntries.
func (c *MemoryCache) Set(_ context.Context, key string, resp request.Response, meta EntryMeta) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if !c.policy.ShouldCache() {
		return nil
	}

	sentinel := meta.Sentinel()
	ttl := c.policy.EffectiveTTL(sentinel)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists {
		if sentinel && c.policy.MaxSentinelEntries > 0 {
			for c.countSentinelLocked() >= c.policy.MaxSentinelEntries {
				if !c.evictOldestLocked(func(e *cacheEntry) bool { return e.meta.Sentinel() }) {
					break
				}
			}
		}
		for len(c.entries) >= c.policy.MaxEntries {
			if !c.evictOldestLocked(nil) {
				break
			}
		}
	}

	c.seq++
	c.entries[key] = &cacheEntry{
		key:        key,
		response:   resp.Clone(),
		meta:       meta,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
		seq:        c.seq,
	}
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear removes every entry. Counters are kept.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}

// Cleanup removes every expired entry, then evicts least recently accessed
// entries until the cache is within MaxEntries. It returns how many entries
// were removed.
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	// Snapshot before deleting so the map is never mutated mid-iteration.
	expired := make([]string, 0)
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(c.entries, key)
		c.stats.Expirations++
		removed++
	}

	if c.policy.MaxEntries > 0 && len(c.entries) > c.policy.MaxEntries {
		ordered := c.byRecencyLocked()
		for _, entry := range ordered[:len(ordered)-c.policy.MaxEntries] {
			delete(c.entries, entry.key)
			c.stats.Evictions++
			removed++
		}
	}

	return removed
}

// Start launches the periodic sweep. It is a no-op when CleanupInterval is
// zero or when already started.
func (c *MemoryCache) Start() {
	if c.policy.CleanupInterval <= 0 {
		return
	}
	c.startOnce.Do(func() {
		go c.sweep(c.policy.CleanupInterval)
	})
}

func (c *MemoryCache) sweep(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Destroy stops the periodic sweep and clears the cache. Safe to call more
// than once.
func (c *MemoryCache) Destroy() {
	c.stopOnce.Do(func() {
		close(c.stop)
		started := true
		c.startOnce.Do(func() { started = false })
		if started {
			<-c.done
		}
	})
	c.Clear()
}

// evictOldestLocked removes the least recently accessed entry matching
// filter (all entries when filter is nil). Caller must hold mu.
func (c *MemoryCache) evictOldestLocked(filter func(*cacheEntry) bool) bool {
	var oldest *cacheEntry
	for _, entry := range c.entries {
		if filter != nil && !filter(entry) {
			continue
		}
		if oldest == nil || lessRecent(entry, oldest) {
			oldest = entry
		}
	}
	if oldest == nil {
		return false
	}
	delete(c.entries, oldest.key)
	c.stats.Evictions++
	return true
}

func (c *MemoryCache) countSentinelLocked() int {
	n := 0
	for _, entry := range c.entries {
		if entry.meta.Sentinel() {
			n++
		}
	}
	return n
}

// byRecencyLocked returns entries ordered from least to most recently accessed.
func (c *MemoryCache) byRecencyLocked() []*cacheEntry {
	ordered := make([]*cacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return lessRecent(ordered[i], ordered[j])
	})
	return ordered
}

func lessRecent(a, b *cacheEntry) bool {
	if !a.lastAccess.Equal(b.lastAccess) {
		return a.lastAccess.Before(b.lastAccess)
	}
	return a.seq < b.seq
}

var _ Cache = (*MemoryCache)(nil)
