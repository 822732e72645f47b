// Package store implements the Store described in spec.md §4.1: the
// concurrent in-memory index of symbols, references, and file metadata
// that every query operation ultimately reads from, plus the full-text
// subindex and memory accounting it owns. Grounded on the teacher's
// internal/core.SymbolIndex for the locking shape (a single sync.RWMutex
// guarding a set of plain Go maps, read methods taking RLock, mutating
// methods taking Lock) — generalized from the teacher's name-keyed
// definitions/references maps to the id-keyed maps spec.md's data model
// requires, and extended with the memory accounting and LRU touch points
// the teacher's index doesn't need.
package store

import (
	"sort"
	"strings"
	"sync"
	"unsafe"

	"github.com/standardbeagle/codeindex/internal/codeerrors"
	"github.com/standardbeagle/codeindex/internal/fuzzy"
	"github.com/standardbeagle/codeindex/internal/memory"
	"github.com/standardbeagle/codeindex/internal/symtypes"
	"github.com/standardbeagle/codeindex/internal/textindex"
)

type fileRefEntry struct {
	targetID symtypes.SymbolID
	ref      symtypes.Reference
}

// Store is the single source of truth at runtime (spec.md §4.1).
type Store struct {
	mu sync.RWMutex

	nameToIDs      map[string][]symtypes.SymbolID
	idToSymbol     map[symtypes.SymbolID]symtypes.Symbol
	idToReferences map[symtypes.SymbolID][]symtypes.Reference
	fileInfo       map[string]symtypes.FileInfo
	fileSymbols    map[string][]symtypes.SymbolID
	fileRefs       map[string][]fileRefEntry

	text *textindex.Index
	mem  *memory.Manager
	lru  *memory.LRUTracker
}

// New builds an empty Store with the given byte budget (0 or negative uses
// memory.DefaultLimitBytes).
func New(memoryLimitBytes int64) *Store {
	return &Store{
		nameToIDs:      make(map[string][]symtypes.SymbolID),
		idToSymbol:     make(map[symtypes.SymbolID]symtypes.Symbol),
		idToReferences: make(map[symtypes.SymbolID][]symtypes.Reference),
		fileInfo:       make(map[string]symtypes.FileInfo),
		fileSymbols:    make(map[string][]symtypes.SymbolID),
		fileRefs:       make(map[string][]fileRefEntry),
		text:           textindex.New(),
		mem:            memory.NewManager(memoryLimitBytes),
		lru:            memory.NewLRUTracker(),
	}
}

// symbolRecordSize approximates unsafe.Sizeof(symtypes.Symbol{}) for the
// memory estimate spec.md §4.5 specifies; computed once since the struct
// shape is fixed.
var symbolRecordSize = int(unsafe.Sizeof(symtypes.Symbol{}))

func estimatedSize(s symtypes.Symbol) int64 {
	return memory.EstimateSymbolSize(symbolRecordSize, s.Name, s.Source)
}

// InsertSymbol adds sym, failing with MemoryLimitExceeded when accepting it
// would push tracked usage past the configured budget.
func (s *Store) InsertSymbol(sym symtypes.Symbol) error {
	size := estimatedSize(sym)
	if !s.mem.CanAllocate(size) {
		return codeerrors.NewMemoryLimitExceeded(sym.Location.File, uint64(size), uint64(s.mem.Limit()))
	}
	s.insert(sym, size)
	return nil
}

// InsertSymbolUnchecked adds sym without the budget check but still
// accounts the allocation, per spec.md §4.1.
func (s *Store) InsertSymbolUnchecked(sym symtypes.Symbol) {
	s.insert(sym, estimatedSize(sym))
}

func (s *Store) insert(sym symtypes.Symbol, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.idToSymbol[sym.ID]; exists {
		// Same id means same definition site: replace the earlier record
		// instead of listing the id twice or accounting it twice.
		s.mem.TrackDeallocation(estimatedSize(old))
		s.removeIDFromNameIndexLocked(old.Name, sym.ID)
	} else {
		s.fileSymbols[sym.Location.File] = append(s.fileSymbols[sym.Location.File], sym.ID)
	}
	s.idToSymbol[sym.ID] = sym
	s.nameToIDs[sym.Name] = append(s.nameToIDs[sym.Name], sym.ID)
	s.mem.TrackAllocation(size)
}

// AddReference attaches ref to targetID's incoming-reference list and
// records that sourceFile emitted it, so a later remove_file_records on
// sourceFile can retract it even though it lives under a different file's
// symbol.
func (s *Store) AddReference(targetID symtypes.SymbolID, ref symtypes.Reference, sourceFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idToReferences[targetID] = append(s.idToReferences[targetID], ref)
	s.fileRefs[sourceFile] = append(s.fileRefs[sourceFile], fileRefEntry{targetID: targetID, ref: ref})
}

// UpdateFileInfo replaces path's FileInfo record.
func (s *Store) UpdateFileInfo(path string, info symtypes.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileInfo[path] = info
}

// IndexFileText upserts path's document in the full-text subindex.
func (s *Store) IndexFileText(path, text, language string) symtypes.TextDocID {
	return s.text.Add(path, text, language)
}

// RemoveFileRecords drops every trace of path: its symbols, the references
// those symbols accumulated, the references path's own code contributed to
// other files' symbols, its FileInfo, and its text document — all under a
// single write lock, so no reader observes a partially-removed file
// (spec.md invariant 4).
func (s *Store) RemoveFileRecords(path string) {
	s.mu.Lock()

	for _, id := range s.fileSymbols[path] {
		sym, ok := s.idToSymbol[id]
		if !ok {
			continue
		}
		s.mem.TrackDeallocation(estimatedSize(sym))
		delete(s.idToSymbol, id)
		delete(s.idToReferences, id)
		s.removeIDFromNameIndexLocked(sym.Name, id)
	}
	delete(s.fileSymbols, path)

	for _, entry := range s.fileRefs[path] {
		s.removeReferenceLocked(entry.targetID, entry.ref)
	}
	delete(s.fileRefs, path)

	delete(s.fileInfo, path)

	s.mu.Unlock()

	s.text.Remove(path)
	s.lru.Forget(path)
}

func (s *Store) removeIDFromNameIndexLocked(name string, id symtypes.SymbolID) {
	ids := s.nameToIDs[name]
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	if len(out) == 0 {
		delete(s.nameToIDs, name) // invariant 3: no empty id lists
		return
	}
	s.nameToIDs[name] = out
}

func (s *Store) removeReferenceLocked(targetID symtypes.SymbolID, ref symtypes.Reference) {
	refs := s.idToReferences[targetID]
	out := refs[:0]
	for _, existing := range refs {
		if existing != ref {
			out = append(out, existing)
		}
	}
	if len(out) == 0 {
		delete(s.idToReferences, targetID)
		return
	}
	s.idToReferences[targetID] = out
}

// GetByName returns every symbol named exactly name, touching the LRU
// tracker for each symbol's owning file.
func (s *Store) GetByName(name string) []symtypes.Symbol {
	s.mu.RLock()
	ids := s.nameToIDs[name]
	symbols := make([]symtypes.Symbol, 0, len(ids))
	for _, id := range ids {
		if sym, ok := s.idToSymbol[id]; ok {
			symbols = append(symbols, sym)
		}
	}
	s.mu.RUnlock()

	for _, sym := range symbols {
		s.lru.Touch(sym.Location.File)
	}
	return symbols
}

// FindByPrefix returns the union of GetByName(x) for every name key x
// starting with prefix. Per spec.md §4.1, it need only be safe under
// concurrent mutation, not a single atomic snapshot.
func (s *Store) FindByPrefix(prefix string) []symtypes.Symbol {
	s.mu.RLock()
	var symbols []symtypes.Symbol
	for name, ids := range s.nameToIDs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, id := range ids {
			if sym, ok := s.idToSymbol[id]; ok {
				symbols = append(symbols, sym)
			}
		}
	}
	s.mu.RUnlock()
	return symbols
}

// FuzzyMatch is one (symbol, score) pair from FindFuzzy.
type FuzzyMatch struct {
	Symbol symtypes.Symbol
	Score  float64
}

// FindFuzzy scores every known name against query and returns a
// (symbol, score) pair for each positive-scoring match, sorted by
// descending score with stable tie-breaking within this call.
func (s *Store) FindFuzzy(query string) []FuzzyMatch {
	s.mu.RLock()
	type nameIDs struct {
		name string
		ids  []symtypes.SymbolID
	}
	snapshot := make([]nameIDs, 0, len(s.nameToIDs))
	for name, ids := range s.nameToIDs {
		snapshot = append(snapshot, nameIDs{name: name, ids: ids})
	}
	var matches []FuzzyMatch
	for _, ni := range snapshot {
		score := fuzzy.Score(query, ni.name)
		if score <= 0 {
			continue
		}
		for _, id := range ni.ids {
			if sym, ok := s.idToSymbol[id]; ok {
				matches = append(matches, FuzzyMatch{Symbol: sym, Score: score})
			}
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// GetByID looks up one symbol by its stable id.
func (s *Store) GetByID(id symtypes.SymbolID) (symtypes.Symbol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sym, ok := s.idToSymbol[id]
	return sym, ok
}

// ReferencesByName aggregates the reference lists of every symbol named
// name.
func (s *Store) ReferencesByName(name string) []symtypes.Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []symtypes.Reference
	for _, id := range s.nameToIDs[name] {
		refs = append(refs, s.idToReferences[id]...)
	}
	return refs
}

// SearchText delegates to the full-text subindex.
func (s *Store) SearchText(query string, limit, contextLines int) []textindex.Result {
	return s.text.Search(query, limit, contextLines)
}

// FileInfo looks up path's bookkeeping record.
func (s *Store) FileInfo(path string) (symtypes.FileInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.fileInfo[path]
	return info, ok
}

// SymbolsByFile returns every symbol currently attributed to path,
// touching the LRU tracker for that file.
func (s *Store) SymbolsByFile(path string) []symtypes.Symbol {
	s.mu.RLock()
	ids := s.fileSymbols[path]
	symbols := make([]symtypes.Symbol, 0, len(ids))
	for _, id := range ids {
		if sym, ok := s.idToSymbol[id]; ok {
			symbols = append(symbols, sym)
		}
	}
	s.mu.RUnlock()

	s.lru.Touch(path)
	return symbols
}

// SymbolsUnderDirectory returns every symbol whose file lies under dir,
// for get_directory_outline (spec.md §6). dir must already be resolved
// (absolute, symlink-evaluated) by the caller.
func (s *Store) SymbolsUnderDirectory(dir string) []symtypes.Symbol {
	prefix := dir
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var symbols []symtypes.Symbol
	for path, ids := range s.fileSymbols {
		if path != dir && !strings.HasPrefix(path, prefix) {
			continue
		}
		for _, id := range ids {
			if sym, ok := s.idToSymbol[id]; ok {
				symbols = append(symbols, sym)
			}
		}
	}
	return symbols
}

// MemoryStats is the snapshot spec.md §4.5's Memory Manager exposes.
type MemoryStats struct {
	CurrentBytes int64
	LimitBytes   int64
	UnderPressure bool
}

func (s *Store) MemoryStats() MemoryStats {
	return MemoryStats{
		CurrentBytes:  s.mem.CurrentUsage(),
		LimitBytes:    s.mem.Limit(),
		UnderPressure: s.mem.IsUnderPressure(),
	}
}

// ShouldTriggerCleanup reports whether eviction should run, rate-limited
// per spec.md §4.5.
func (s *Store) ShouldTriggerCleanup() bool {
	return s.mem.ShouldTriggerCleanup()
}

// SnapshotForCache copies the four maps internal/cache persists, fulfilling
// the cache.StoreSnapshot interface without that package importing this
// one.
func (s *Store) SnapshotForCache() (map[string][]symtypes.SymbolID, map[symtypes.SymbolID]symtypes.Symbol, map[symtypes.SymbolID][]symtypes.Reference, map[string]symtypes.FileInfo) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nameToIDs := make(map[string][]symtypes.SymbolID, len(s.nameToIDs))
	for k, v := range s.nameToIDs {
		cp := make([]symtypes.SymbolID, len(v))
		copy(cp, v)
		nameToIDs[k] = cp
	}
	symbols := make(map[symtypes.SymbolID]symtypes.Symbol, len(s.idToSymbol))
	for k, v := range s.idToSymbol {
		symbols[k] = v
	}
	references := make(map[symtypes.SymbolID][]symtypes.Reference, len(s.idToReferences))
	for k, v := range s.idToReferences {
		cp := make([]symtypes.Reference, len(v))
		copy(cp, v)
		references[k] = cp
	}
	files := make(map[string]symtypes.FileInfo, len(s.fileInfo))
	for k, v := range s.fileInfo {
		files[k] = v
	}
	return nameToIDs, symbols, references, files
}

// RestoreFromCache replaces the Store's state wholesale with a cache
// payload's maps, rebuilding fileSymbols and the memory counter from the
// restored symbols since those are not themselves persisted. fileRefs
// starts empty (which file contributed each reference is not persisted),
// and the full-text subindex is reset to empty. Callers are expected to do
// this only against a freshly constructed or explicitly wiped Store.
func (s *Store) RestoreFromCache(nameToIDs map[string][]symtypes.SymbolID, symbols map[symtypes.SymbolID]symtypes.Symbol, references map[symtypes.SymbolID][]symtypes.Reference, files map[string]symtypes.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nameToIDs = nameToIDs
	s.idToSymbol = symbols
	s.idToReferences = references
	s.fileInfo = files
	s.fileSymbols = make(map[string][]symtypes.SymbolID, len(files))
	s.fileRefs = make(map[string][]fileRefEntry)

	var total int64
	for id, sym := range symbols {
		s.fileSymbols[sym.Location.File] = append(s.fileSymbols[sym.Location.File], id)
		total += estimatedSize(sym)
	}
	s.mem.TrackAllocation(total - s.mem.CurrentUsage())

	s.text = textindex.New()
}

// Wipe clears all Store state in place, used before a full re-index
// replaces a stale or cache-miss Store (spec.md §4.4's index_with_cache).
func (s *Store) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nameToIDs = make(map[string][]symtypes.SymbolID)
	s.idToSymbol = make(map[symtypes.SymbolID]symtypes.Symbol)
	s.idToReferences = make(map[symtypes.SymbolID][]symtypes.Reference)
	s.fileInfo = make(map[string]symtypes.FileInfo)
	s.fileSymbols = make(map[string][]symtypes.SymbolID)
	s.fileRefs = make(map[string][]fileRefEntry)
	s.mem.TrackDeallocation(s.mem.CurrentUsage())
	s.text = textindex.New()
}

// EvictIfNeeded implements the eviction protocol from spec.md §4.5: take up
// to k LRU-oldest paths and remove their records, stopping early once
// pressure subsides. Returns the paths actually evicted.
func (s *Store) EvictIfNeeded(k int) []string {
	candidates := s.lru.LRUFiles(k)
	var evicted []string
	for _, path := range candidates {
		if !s.mem.IsUnderPressure() {
			break
		}
		s.RemoveFileRecords(path)
		evicted = append(evicted, path)
	}
	return evicted
}
