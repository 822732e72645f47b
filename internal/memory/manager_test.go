package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_TrackAllocationAndDeallocation(t *testing.T) {
	m := NewManager(1000)
	m.TrackAllocation(400)
	assert.Equal(t, int64(400), m.CurrentUsage())
	m.TrackDeallocation(150)
	assert.Equal(t, int64(250), m.CurrentUsage())
}

func TestManager_TrackDeallocation_ClampsAtZero(t *testing.T) {
	m := NewManager(1000)
	m.TrackAllocation(10)
	m.TrackDeallocation(100)
	assert.Equal(t, int64(0), m.CurrentUsage(), "usage must never go negative (P1)")
}

func TestManager_CanAllocate(t *testing.T) {
	m := NewManager(100)
	m.TrackAllocation(90)
	assert.True(t, m.CanAllocate(10))
	assert.False(t, m.CanAllocate(11))
}

func TestManager_IsUnderPressure_At80PercentThreshold(t *testing.T) {
	m := NewManager(100)
	m.TrackAllocation(80)
	assert.False(t, m.IsUnderPressure(), "exactly at threshold is not yet over it")
	m.TrackAllocation(1)
	assert.True(t, m.IsUnderPressure())
}

func TestManager_ShouldTriggerCleanup_IsRateLimited(t *testing.T) {
	m := NewManager(100)
	m.TrackAllocation(90)
	assert.True(t, m.ShouldTriggerCleanup())

	// Relieve the pressure without waiting out the rate limit window; the
	// cached verdict from the first call should still be returned.
	m.TrackDeallocation(90)
	assert.True(t, m.ShouldTriggerCleanup(), "verdict is cached within the 5s window")
}

func TestManager_DefaultLimitAppliesForNonPositiveInput(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, DefaultLimitBytes, m.Limit())
	m2 := NewManager(-5)
	assert.Equal(t, DefaultLimitBytes, m2.Limit())
}

func TestEstimateSymbolSize_IncludesNameSourceAndOverhead(t *testing.T) {
	withoutSource := EstimateSymbolSize(64, "name", "")
	withSource := EstimateSymbolSize(64, "name", "func name() {}")
	assert.Greater(t, withSource, withoutSource)
	assert.Equal(t, int64(64+4+0+symbolFixedOverhead), withoutSource)
}

func TestLRUTracker_TouchTracksAccessAndBumpsRecency(t *testing.T) {
	tr := NewLRUTracker()
	tr.Touch("a.go")
	time.Sleep(time.Millisecond)
	tr.Touch("b.go")

	oldest := tr.LRUFiles(1)
	assert.Equal(t, []string{"a.go"}, oldest)

	tr.Touch("a.go") // bump a.go back to most-recent
	oldest = tr.LRUFiles(1)
	assert.Equal(t, []string{"b.go"}, oldest)
}

func TestLRUTracker_DropsOldestQuarterOnOverflow(t *testing.T) {
	tr := NewLRUTracker()
	for i := 0; i < maxLRUEntries+1; i++ {
		tr.Touch(string(rune('a')) + intToPath(i))
	}
	assert.LessOrEqual(t, tr.Len(), maxLRUEntries)
	assert.Greater(t, tr.Len(), maxLRUEntries-maxLRUEntries/4-2)
}

func TestLRUTracker_ForgetRemovesPath(t *testing.T) {
	tr := NewLRUTracker()
	tr.Touch("a.go")
	tr.Forget("a.go")
	assert.Empty(t, tr.LRUFiles(10))
}

func intToPath(i int) string {
	digits := []byte{}
	if i == 0 {
		return "0"
	}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
