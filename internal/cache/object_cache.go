package cache

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// cacheEntry is one stored value with its bookkeeping
type cacheEntry struct {
	Value     interface{}
	ExpiresAt time.Time // zero means the entry never expires
	CreatedAt time.Time
	LastUsed  time.Time
	Size      int64 // Estimated memory size
}

// ObjectCache is an in-process key/value cache with per-entry expiry.
// It plays the role of the shared object cache the site statistics code
// consults for its "recently updated" markers and group counts.
type ObjectCache struct {
	cache       map[string]*cacheEntry
	mutex       sync.RWMutex
	maxEntries  int           // Maximum number of cached entries
	cleanupTick time.Duration // How often to run cleanup
	stopCleanup chan struct{}
	stopOnce    sync.Once
	cachedSize  int64        // Size of the cache in bytes
	countermux  sync.RWMutex // Mutex for counters
	hits        int64        // Cache hit counter
	misses      int64        // Cache miss counter
	now         func() time.Time
}

// Stats is a point-in-time view of the cache counters
type Stats struct {
	Entries            int     `json:"entries"`
	MaxEntries         int     `json:"max_entries"`
	SizeBytes          int64   `json:"size_bytes"`
	SizeHuman          string  `json:"size_human"`
	Hits               int64   `json:"hits"`
	Misses             int64   `json:"misses"`
	HitRate            float64 `json:"hit_rate"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// NewObjectCache creates a new object cache and starts its cleanup goroutine
func NewObjectCache(maxEntries int, cleanupTick time.Duration) *ObjectCache {
	oc := newObjectCache(maxEntries, cleanupTick, time.Now)
	go oc.cleanup()
	return oc
}

func newObjectCache(maxEntries int, cleanupTick time.Duration, now func() time.Time) *ObjectCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if cleanupTick <= 0 {
		cleanupTick = 5 * time.Minute
	}
	return &ObjectCache{
		cache:       make(map[string]*cacheEntry),
		maxEntries:  maxEntries,
		cleanupTick: cleanupTick,
		stopCleanup: make(chan struct{}),
		now:         now,
	}
}

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A", " ", "_")

// MakeKey builds a cache key scoped to one wiki: "wikiid:part1:part2".
// Colons inside parts are escaped so keys cannot collide.
func MakeKey(wikiID string, parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, keyEscaper.Replace(wikiID))
	for _, p := range parts {
		escaped = append(escaped, keyEscaper.Replace(p))
	}
	return strings.Join(escaped, ":")
}

// Get retrieves a value. Expired entries count as misses.
func (oc *ObjectCache) Get(key string) (interface{}, bool) {
	now := oc.now()

	oc.mutex.Lock()
	entry, exists := oc.cache[key]
	if exists && !entry.ExpiresAt.IsZero() && now.After(entry.ExpiresAt) {
		oc.removeLocked(key, entry)
		exists = false
	}
	if exists {
		entry.LastUsed = now
	}
	oc.mutex.Unlock()

	oc.countermux.Lock()
	if exists {
		oc.hits++
	} else {
		oc.misses++
	}
	oc.countermux.Unlock()

	if !exists {
		return nil, false
	}
	return entry.Value, true
}

// GetString is Get for string values; other types count as absent
func (oc *ObjectCache) GetString(key string) (string, bool) {
	v, ok := oc.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt64 is Get for int64 values; other types count as absent
func (oc *ObjectCache) GetInt64(key string) (int64, bool) {
	v, ok := oc.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// Set stores a value for ttl. A ttl <= 0 stores the value without expiry.
func (oc *ObjectCache) Set(key string, value interface{}, ttl time.Duration) {
	now := oc.now()
	entry := &cacheEntry{
		Value:     value,
		CreatedAt: now,
		LastUsed:  now,
		Size:      estimateSize(key, value),
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	oc.mutex.Lock()
	defer oc.mutex.Unlock()

	if oldEntry, exists := oc.cache[key]; exists {
		oc.updateCachedSize(-oldEntry.Size)
	}
	oc.cache[key] = entry
	oc.updateCachedSize(entry.Size)

	oc.evictIfNeeded()
}

// Delete removes a specific cache entry
func (oc *ObjectCache) Delete(key string) {
	oc.mutex.Lock()
	defer oc.mutex.Unlock()

	if entry, exists := oc.cache[key]; exists {
		oc.removeLocked(key, entry)
	}
}

// Clear removes all cache entries
func (oc *ObjectCache) Clear() int {
	oc.mutex.Lock()
	defer oc.mutex.Unlock()

	count := len(oc.cache)
	oc.cache = make(map[string]*cacheEntry)
	oc.countermux.Lock()
	oc.cachedSize = 0
	oc.countermux.Unlock()

	log.Printf("[CACHE]: Cleared all cache entries (%d entries)", count)
	return count
}

// Stats returns cache statistics
func (oc *ObjectCache) Stats() Stats {
	oc.mutex.RLock()
	entryCount := len(oc.cache)
	oc.mutex.RUnlock()

	oc.countermux.RLock()
	hits := oc.hits
	misses := oc.misses
	size := oc.cachedSize
	oc.countermux.RUnlock()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return Stats{
		Entries:            entryCount,
		MaxEntries:         oc.maxEntries,
		SizeBytes:          size,
		SizeHuman:          humanSize(size),
		Hits:               hits,
		Misses:             misses,
		HitRate:            hitRate,
		UtilizationPercent: float64(entryCount) / float64(oc.maxEntries) * 100,
	}
}

// Stop shuts down the cleanup goroutine; safe to call more than once
func (oc *ObjectCache) Stop() {
	oc.stopOnce.Do(func() {
		close(oc.stopCleanup)
	})
}

// removeLocked drops an entry (must be called with lock held)
func (oc *ObjectCache) removeLocked(key string, entry *cacheEntry) {
	oc.updateCachedSize(-entry.Size)
	delete(oc.cache, key)
}

// updateCachedSize updates the cached size counter (thread-safe)
func (oc *ObjectCache) updateCachedSize(delta int64) {
	oc.countermux.Lock()
	oc.cachedSize += delta
	if oc.cachedSize < 0 {
		oc.cachedSize = 0
	}
	oc.countermux.Unlock()
}

// evictIfNeeded removes least recently used entries while the cache is over capacity (must be called with lock held)
func (oc *ObjectCache) evictIfNeeded() {
	for len(oc.cache) > oc.maxEntries {
		var oldestKey string
		var oldestTime time.Time

		for key, entry := range oc.cache {
			if oldestKey == "" || entry.LastUsed.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.LastUsed
			}
		}
		if oldestKey == "" {
			return
		}
		oc.removeLocked(oldestKey, oc.cache[oldestKey])
		log.Printf("[CACHE]: Evicted oldest entry: %s", oldestKey)
	}
}

// cleanup runs periodically to remove expired entries
func (oc *ObjectCache) cleanup() {
	ticker := time.NewTicker(oc.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			oc.cleanupExpired()
		case <-oc.stopCleanup:
			log.Println("[CACHE]: Stopping cleanup goroutine")
			return
		}
	}
}

// cleanupExpired removes expired cache entries
func (oc *ObjectCache) cleanupExpired() int {
	now := oc.now()

	oc.mutex.Lock()
	defer oc.mutex.Unlock()

	removed := 0
	for key, entry := range oc.cache {
		if !entry.ExpiresAt.IsZero() && now.After(entry.ExpiresAt) {
			oc.removeLocked(key, entry)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[CACHE]: Cleaned up %d expired entries", removed)
	}
	return removed
}

// estimateSize calculates rough memory usage of an entry
func estimateSize(key string, value interface{}) int64 {
	size := int64(64 + len(key)) // entry overhead
	switch v := value.(type) {
	case string:
		size += int64(len(v))
	case []byte:
		size += int64(len(v))
	default:
		size += 16
	}
	return size
}

// humanSize returns a human-readable byte size
func humanSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d bytes", size)
	}
	if size < 1024*1024 {
		return fmt.Sprintf("%.2f KB", float64(size)/1024.0)
	}
	return fmt.Sprintf("%.2f MB", float64(size)/(1024.0*1024.0))
}
