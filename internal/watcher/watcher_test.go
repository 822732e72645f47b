package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func isGoFile(path string) bool {
	return filepath.Ext(path) == ".go"
}

func TestWatcher_ReindexesOnWriteAfterDebounce(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	var mu sync.Mutex
	var reindexed []string

	w, err := New(dir, 50*time.Millisecond, isGoFile, func(p string) error {
		mu.Lock()
		reindexed = append(reindexed, p)
		mu.Unlock()
		return nil
	}, func(p string) {})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("package a\nvar X = 1"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reindexed) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestWatcher_RemovesOnDelete(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	var mu sync.Mutex
	var removed []string

	w, err := New(dir, 50*time.Millisecond, isGoFile, func(p string) error { return nil }, func(p string) {
		mu.Lock()
		removed = append(removed, p)
		mu.Unlock()
	})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(removed) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestWatcher_StartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w, err := New(dir, 50*time.Millisecond, isGoFile, func(p string) error { return nil }, func(p string) {})
	require.NoError(t, err)
	w.Start()
	w.Stop()
	assert.NotPanics(t, func() {})
}
