// Package memory implements the Memory Manager and LRU tracker spec.md
// §4.5 describes: a soft byte budget enforced at symbol-insert time, and a
// recency tracker the Store consults to pick eviction candidates under
// pressure. Grounded on the teacher's atomic-counter style (internal/core
// uses sync/atomic counters alongside its RWMutex-guarded maps) and, for
// the LRU ordering itself, on hashicorp/golang-lru/v2 — the same bounded
// cache the sibling uispec example wires for recency tracking.
package memory

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultLimitBytes is the 1 GiB default spec.md §4.5 names.
	DefaultLimitBytes int64 = 1024 * 1024 * 1024

	warningFraction = 0.80
	rateLimit       = 5 * time.Second

	// symbolFixedOverhead approximates bookkeeping cost beyond a symbol's
	// own fields: map entry headers, slice headers, ID and location words.
	symbolFixedOverhead = 128
)

// EstimateSymbolSize implements spec.md §4.5's "sizeof(record) + len(name)
// + len(source or 0) + fixed overhead" formula. recordSize is the caller's
// sizeof(Symbol) estimate so this package does not need to import
// symtypes just to call unsafe.Sizeof.
func EstimateSymbolSize(recordSize int, name, source string) int64 {
	return int64(recordSize) + int64(len(name)) + int64(len(source)) + symbolFixedOverhead
}

// Manager tracks total accounted bytes against a configured limit and
// decides when the Pipeline should ask for LRU eviction.
type Manager struct {
	limit   int64
	current int64 // atomic

	mu              sync.Mutex
	lastCheck       time.Time
	lastCheckWasDue bool
}

// NewManager builds a Manager with the given byte limit. A non-positive
// limit falls back to DefaultLimitBytes.
func NewManager(limitBytes int64) *Manager {
	if limitBytes <= 0 {
		limitBytes = DefaultLimitBytes
	}
	return &Manager{limit: limitBytes}
}

// TrackAllocation records n additional bytes as in use.
func (m *Manager) TrackAllocation(n int64) {
	atomic.AddInt64(&m.current, n)
}

// TrackDeallocation releases n bytes. The counter is clamped at zero so a
// double-release (a bug elsewhere) can't drive it negative, preserving
// invariant P1's "memory_usage() >= 0".
func (m *Manager) TrackDeallocation(n int64) {
	for {
		cur := atomic.LoadInt64(&m.current)
		next := cur - n
		if next < 0 {
			next = 0
		}
		if atomic.CompareAndSwapInt64(&m.current, cur, next) {
			return
		}
	}
}

// CurrentUsage returns the tracked byte count.
func (m *Manager) CurrentUsage() int64 {
	return atomic.LoadInt64(&m.current)
}

// Limit returns the configured byte budget.
func (m *Manager) Limit() int64 {
	return m.limit
}

// CanAllocate reports whether accepting n more bytes would stay at or
// under the limit.
func (m *Manager) CanAllocate(n int64) bool {
	return atomic.LoadInt64(&m.current)+n <= m.limit
}

// IsUnderPressure reports whether usage has crossed the 80% warning
// threshold.
func (m *Manager) IsUnderPressure() bool {
	threshold := int64(float64(m.limit) * warningFraction)
	return atomic.LoadInt64(&m.current) > threshold
}

// ShouldTriggerCleanup reports IsUnderPressure(), but computes that answer
// at most once per 5 seconds; calls within the window reuse the prior
// verdict rather than re-triggering a cleanup cycle on every check.
func (m *Manager) ShouldTriggerCleanup() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastCheck) < rateLimit {
		return m.lastCheckWasDue
	}
	m.lastCheck = now
	m.lastCheckWasDue = m.IsUnderPressure()
	return m.lastCheckWasDue
}
