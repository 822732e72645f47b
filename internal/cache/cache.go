// Package cache implements the durable binary snapshot described in
// spec.md §4.4: a gob-encoded copy of the Store's maps, keyed by the
// first 16 hex characters of a digest of the canonical root path, written
// atomically and validated on load for version and referential integrity.
// Grounded on the original Rust implementation's storage/cache.rs
// (CacheManager: sha256 key, bincode payload, temp-file-then-rename save,
// corruption/version/integrity checks on load) — the wire format swaps
// bincode for encoding/gob, the only self-delimiting binary codec in the
// reference pack with no schema-definition step, and the key hash swaps
// sha256 for cespare/xxhash/v2 to match the rest of this module's fingerprint
// dependency rather than pulling in a second hashing library for the
// same purpose.
package cache

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/codeindex/internal/debug"
	"github.com/standardbeagle/codeindex/internal/symtypes"
)

// CurrentVersion is the on-disk schema version spec.md §4.4 fixes.
const CurrentVersion uint32 = 1

// PersistedIndex is the decoded payload of a cache file: the Store's
// symbol, reference and file maps, enough to answer symbol queries without
// re-extracting a single file. File contents are not persisted; the
// Pipeline re-reads them to rebuild the full-text subindex after a load.
type PersistedIndex struct {
	Version     uint32
	CreatedAt   time.Time
	RootPath    string
	NameToIDs   map[string][]symtypes.SymbolID
	Symbols     map[symtypes.SymbolID]symtypes.Symbol
	References  map[symtypes.SymbolID][]symtypes.Reference
	Files       map[string]symtypes.FileInfo
}

// StoreSnapshot is the minimal view of a Store the cache needs to save and
// restore, letting this package avoid importing internal/store and
// creating a cycle (the Pipeline, which imports both, does the wiring).
type StoreSnapshot interface {
	SnapshotForCache() (nameToIDs map[string][]symtypes.SymbolID, symbols map[symtypes.SymbolID]symtypes.Symbol, references map[symtypes.SymbolID][]symtypes.Reference, files map[string]symtypes.FileInfo)
	RestoreFromCache(nameToIDs map[string][]symtypes.SymbolID, symbols map[symtypes.SymbolID]symtypes.Symbol, references map[symtypes.SymbolID][]symtypes.Reference, files map[string]symtypes.FileInfo)
}

// Manager owns the on-disk cache directory and the save/load lifecycle
// described in spec.md §4.4.
type Manager struct {
	dir string
}

// NewManager resolves the platform cache directory (an override takes
// precedence; otherwise the OS convention spec.md §6 names), creating it
// if necessary.
func NewManager(override string) (*Manager, error) {
	dir := override
	if dir == "" {
		dir = defaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// defaultCacheDir implements spec.md §6's per-OS convention: macOS under
// ~/Library/Caches, Windows under the platform cache dir, Linux under
// XDG_CACHE_HOME or ~/.cache, falling back to /tmp/.cache if even HOME is
// unavailable.
func defaultCacheDir() string {
	const appDir = "codeindex"

	switch runtime.GOOS {
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Caches", appDir)
		}
	case "windows":
		if dir, err := os.UserCacheDir(); err == nil {
			return filepath.Join(dir, appDir)
		}
	default:
		if dir, err := os.UserCacheDir(); err == nil {
			return filepath.Join(dir, appDir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".cache", appDir)
		}
	}
	return filepath.Join(os.TempDir(), ".cache", appDir)
}

// cacheKey hashes the canonical absolute root path, truncated to the first
// 16 hex characters spec.md §4.4 names.
func cacheKey(canonicalRoot string) string {
	sum := xxhash.Sum64String(canonicalRoot)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])[:16]
}

func (m *Manager) pathFor(canonicalRoot string) string {
	return filepath.Join(m.dir, cacheKey(canonicalRoot)+".bin")
}

// SaveIndex serializes store's current state and atomically replaces the
// cache file for canonicalRoot: encode to a sibling .tmp file, then rename
// into place, per spec.md §4.4's save_index.
func (m *Manager) SaveIndex(store StoreSnapshot, canonicalRoot string) error {
	nameToIDs, symbols, references, files := store.SnapshotForCache()

	index := PersistedIndex{
		Version:    CurrentVersion,
		CreatedAt:  time.Now(),
		RootPath:   canonicalRoot,
		NameToIDs:  nameToIDs,
		Symbols:    symbols,
		References: references,
		Files:      files,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&index); err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	finalPath := m.pathFor(canonicalRoot)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename cache file into place: %w", err)
	}
	return nil
}

// LoadIndex implements spec.md §4.4's load_index: absent, unreadable,
// undecodable, wrong-version, or integrity-failing payloads all resolve to
// (nil, nil) after deleting the offending file, never an error the caller
// must handle specially.
func (m *Manager) LoadIndex(canonicalRoot string) (*PersistedIndex, error) {
	path := m.pathFor(canonicalRoot)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		debug.Logf("cache: read failure for %s: %v, discarding", path, err)
		_ = os.Remove(path)
		return nil, nil
	}

	var index PersistedIndex
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&index); err != nil {
		debug.Logf("cache: corrupt payload at %s: %v, discarding", path, err)
		_ = os.Remove(path)
		return nil, nil
	}

	if index.Version != CurrentVersion {
		debug.Logf("cache: version mismatch at %s (got %d, want %d), discarding", path, index.Version, CurrentVersion)
		_ = os.Remove(path)
		return nil, nil
	}

	if !validateIntegrity(&index) {
		debug.Logf("cache: integrity check failed at %s, discarding", path)
		_ = os.Remove(path)
		return nil, nil
	}

	return &index, nil
}

// validateIntegrity implements spec.md §4.4's integrity check: an empty
// index is trivially valid; every id listed under a name must be a key in
// the symbol map; a symbol referencing a file no longer in the file map is
// tolerated (the file may simply have been deleted since the cache was
// written).
func validateIntegrity(index *PersistedIndex) bool {
	if len(index.NameToIDs) == 0 && len(index.Symbols) == 0 {
		return true
	}
	for name, ids := range index.NameToIDs {
		for _, id := range ids {
			sym, ok := index.Symbols[id]
			if !ok {
				debug.Logf("cache: name %q references missing symbol id %d", name, id)
				return false
			}
			if sym.Name != name {
				debug.Logf("cache: symbol id %d stored under name %q but has name %q", id, name, sym.Name)
				return false
			}
		}
	}
	return true
}

// freshnessSampleSize is the small prefix of known files spec.md §4.4
// samples for validate_cache_freshness.
const freshnessSampleSize = 5

// ValidateFreshness implements spec.md §4.4's validate_cache_freshness: the
// cache is stale if any of a small sample of its known files is no longer
// accessible, or has been modified since the cache was created.
func ValidateFreshness(index *PersistedIndex) bool {
	n := 0
	for path := range index.Files {
		if n >= freshnessSampleSize {
			break
		}
		n++

		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.ModTime().After(index.CreatedAt) {
			return false
		}
	}
	return true
}

// Clear removes the cache file for canonicalRoot, if any.
func (m *Manager) Clear(canonicalRoot string) error {
	err := os.Remove(m.pathFor(canonicalRoot))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
