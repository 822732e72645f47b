package memory

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// maxLRUEntries is the 10,000-entry bound spec.md §4.5 fixes.
const maxLRUEntries = 10000

// entryInfo is the bookkeeping spec.md §4.5 names for each tracked file.
type entryInfo struct {
	lastAccess  time.Time
	accessCount int
}

// LRUTracker records which file each symbol lookup touched, most recent
// last, so the eviction protocol has a ranked list of cold files to drop
// under memory pressure. Built on hashicorp/golang-lru/v2's non-locking
// core (simplelru) with capacity left effectively unbounded so this type
// controls the eviction policy itself: spec.md calls for a bulk "drop the
// oldest quarter" once the 10,000 bound is exceeded, not the library's
// default one-entry-at-a-time eviction.
type LRUTracker struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *entryInfo]
}

func NewLRUTracker() *LRUTracker {
	// No onEvict callback: this type calls RemoveOldest itself, explicitly,
	// rather than letting simplelru evict behind Touch's back.
	l, _ := simplelru.NewLRU[string, *entryInfo](maxLRUEntries*4, nil)
	return &LRUTracker{lru: l}
}

// Touch marks path as just accessed, bumping it to most-recently-used and
// incrementing its access count. When the tracker exceeds its bound, the
// oldest quarter of entries is dropped in one pass.
func (t *LRUTracker) Touch(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if info, ok := t.lru.Get(path); ok {
		info.lastAccess = time.Now()
		info.accessCount++
		t.lru.Add(path, info) // re-insert to bump recency
		return
	}

	t.lru.Add(path, &entryInfo{lastAccess: time.Now(), accessCount: 1})

	if t.lru.Len() > maxLRUEntries {
		drop := t.lru.Len() / 4
		for i := 0; i < drop; i++ {
			t.lru.RemoveOldest()
		}
	}
}

// Forget removes path from the tracker, used when the Store drops a file's
// records outright (explicit removal or eviction) so a future Touch starts
// it fresh.
func (t *LRUTracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lru.Remove(path)
}

// LRUFiles returns the k oldest-accessed paths, oldest first.
func (t *LRUTracker) LRUFiles(k int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := t.lru.Keys() // oldest-to-newest, per simplelru's ordering
	if k > len(keys) {
		k = len(keys)
	}
	out := make([]string, k)
	copy(out, keys[:k])
	return out
}

// Len reports how many paths are currently tracked.
func (t *LRUTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lru.Len()
}
