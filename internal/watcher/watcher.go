// Package watcher implements the Watcher/Debouncer collaborator spec.md
// §4.6 describes: fsnotify events on source-extension files stamp a
// pending-path map with the event time, and a 50ms ticker promotes any
// path that has been stable for >=100ms into a Pipeline re-index (or a
// Store removal, if the file is gone). Grounded on the original Rust
// implementation's utils/watcher.rs for the two-task shape (an event
// receiver feeding a debounce map, a separate ticker draining it) and on
// the teacher's internal/indexing/watcher.go for the Go-native
// fsnotify.Watcher plumbing and context-based shutdown.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codeindex/internal/debug"
	"github.com/standardbeagle/codeindex/internal/pathutil"
)

// tickInterval is the 50ms polling cadence spec.md §4.6 fixes.
const tickInterval = 50 * time.Millisecond

// ReindexFunc, RemoveFunc, and IsSourceFunc are the three callbacks the
// Watcher needs from its caller; declared as plain function types rather
// than an interface so this package doesn't have to import the Pipeline's
// return types.
type (
	ReindexFunc  func(path string) error
	RemoveFunc   func(path string)
	IsSourceFunc func(path string) bool
)

// Watcher subscribes to filesystem events under a root directory and
// drives a Pipeline after quiescence, per spec.md §4.6.
type Watcher struct {
	fsw         *fsnotify.Watcher
	debounce    time.Duration
	reindex     ReindexFunc
	remove      RemoveFunc
	isSource    IsSourceFunc

	mu      sync.Mutex
	pending map[string]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Watcher rooted at root. debounce is the quiescence window
// (spec.md §4.6 fixes it at 100ms; callers may override for tests).
func New(root string, debounce time.Duration, isSource IsSourceFunc, reindex ReindexFunc, remove RemoveFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if err := addRecursive(fsw, root); err != nil {
		debug.Logf("watcher: recursive add under %s: %v", root, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		reindex:  reindex,
		remove:   remove,
		isSource: isSource,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start launches the event-receiving and debounce-ticking goroutines.
func (w *Watcher) Start() {
	w.wg.Add(2)
	go w.receiveEvents()
	go w.tick()
}

// Stop cancels both goroutines and closes the underlying fsnotify watcher,
// blocking until both have exited so no goroutine leaks past Stop.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) receiveEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.Logf("watcher: fsnotify error: %v", err)
		}
	}
}

// handleEvent implements spec.md §4.6's filter: only Create/Write/Remove/
// Rename events on a source-extension path stamp the pending map.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(w.fsw, event.Name); err != nil {
				debug.Logf("watcher: watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !w.isSource(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// tick implements spec.md §4.6's 50ms ticker: paths stable for >=100ms are
// drained from the pending map and processed. Bursts of writes to the same
// path coalesce into the single re-index that happens once the path
// finally goes quiet.
func (w *Watcher) tick() {
	defer w.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case now := <-ticker.C:
			w.drainStable(now)
		}
	}
}

func (w *Watcher) drainStable(now time.Time) {
	var ready []string

	w.mu.Lock()
	for path, stamp := range w.pending {
		if now.Sub(stamp) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.process(path)
	}
}

// process normalizes path against the working directory, as spec.md §4.6
// requires so the key matches what the Pipeline originally stored, then
// re-indexes or removes it depending on whether it still exists.
func (w *Watcher) process(path string) {
	normalized, err := pathutil.Resolve(path)
	if err != nil {
		// Resolve fails for paths that no longer exist (EvalSymlinks
		// requires the target to be present), which is exactly the
		// deletion case: remove using the original watched path.
		debug.Logf("watcher: removing records for deleted file %s", path)
		w.remove(path)
		return
	}

	if err := w.reindex(normalized); err != nil {
		debug.Logf("watcher: re-index of %s failed: %v", normalized, err)
	}
}

// addRecursive subscribes every subdirectory under root, since fsnotify
// does not watch recursively on its own.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // one unreadable entry does not abort the whole subscribe
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				debug.Logf("watcher: add %s: %v", path, addErr)
			}
		}
		return nil
	})
}
