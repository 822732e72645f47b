// Package pipeline implements the per-file and per-directory orchestrator
// spec.md §4.3 describes: read -> hash -> change-detect -> extract ->
// store -> maintain the text subindex, plus the cache-backed entry point
// of §4.4. Grounded on the original Rust implementation's
// indexing/indexing_pipeline.rs (IndexingPipeline::index_directory /
// index_file / index_directory_with_cache) for the control flow — critical
// error counting, the per-100-files memory check, content-hash short
// circuiting, and the character-safe reference-name slice used for
// heuristic linking — generalized from its single in-process store to this
// module's Store/Cache/Walker/Extractor collaborators.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/codeindex/internal/cache"
	"github.com/standardbeagle/codeindex/internal/codeerrors"
	"github.com/standardbeagle/codeindex/internal/config"
	"github.com/standardbeagle/codeindex/internal/debug"
	"github.com/standardbeagle/codeindex/internal/parser"
	"github.com/standardbeagle/codeindex/internal/store"
	"github.com/standardbeagle/codeindex/internal/symtypes"
	"github.com/standardbeagle/codeindex/internal/walker"
)

// maxFileSize is the 10 MiB hard cap spec.md §4.3 step 3 fixes.
const maxFileSize int64 = 10 * 1024 * 1024

// mmapThreshold is the size at or above which the Pipeline reads a file
// through a memory mapping (whose bytes are then copied into a Go-owned
// buffer) instead of os.ReadFile, wiring edsrzf/mmap-go into the read path
// per SPEC_FULL.md §4.8.
const mmapThreshold int64 = 256 * 1024

// maxCriticalErrors is the walk-abort threshold spec.md §4.3 step 4 fixes.
const maxCriticalErrors = 10

// memoryCheckInterval is the "after every 100 files" cadence of spec.md
// §4.3 step 3.
const memoryCheckInterval = 100

// evictionBatch is how many LRU-oldest files EvictIfNeeded considers per
// cleanup pass.
const evictionBatch = 64

// Result is the outcome of an index_directory run, matching the fields
// spec.md §6's index_code operation reports.
type Result struct {
	FilesProcessed int
	SymbolsFound   int
	FilesSkipped   int
	Errors         []error
	DurationMs     int64
	PartialSuccess bool
	CacheUsed      bool
}

// Pipeline is the single-mutex orchestrator spec.md §5 requires: parser
// state is not reentrant, so at most one index_file runs at a time per
// Pipeline instance.
type Pipeline struct {
	mu        sync.Mutex
	store     *store.Store
	extractor *parser.Extractor
	walker    *walker.Walker
	cacheMgr  *cache.Manager
	cfg       *config.Config
}

// New builds a Pipeline wired to store and configured by cfg. cacheMgr may
// be nil, in which case IndexWithCache degrades to a plain IndexDirectory.
func New(cfg *config.Config, st *store.Store, cacheMgr *cache.Manager) *Pipeline {
	return &Pipeline{
		store:     st,
		extractor: parser.NewExtractor(),
		walker:    walker.New(cfg),
		cacheMgr:  cacheMgr,
		cfg:       cfg,
	}
}

// indexConcurrency bounds how many files are in flight at once during a
// directory walk. IndexFile holds the Pipeline's single mutex (spec.md §5)
// for its whole body, including stat, read and hash, so files are still
// indexed one at a time; the pool does not parallelize per-file work.
var indexConcurrency = int64(runtime.NumCPU())

// IndexDirectory implements spec.md §4.3's index_directory: walk root,
// index_file each entry, periodically check memory pressure, and abort
// once critical errors reach the fixed threshold.
func (p *Pipeline) IndexDirectory(root string) Result {
	start := time.Now()

	var paths []string
	walkErr := p.walker.Walk(root, func(path string) error {
		paths = append(paths, path)
		return nil
	})

	var (
		mu             sync.Mutex
		result         Result
		criticalErrors int
		aborted        bool
	)
	if walkErr != nil {
		result.Errors = append(result.Errors, walkErr)
		result.PartialSuccess = true
	}

	sem := semaphore.NewWeighted(indexConcurrency)
	ctx := context.Background()
	var wg sync.WaitGroup

	dispatched := 0
	for i, path := range paths {
		mu.Lock()
		stop := aborted
		mu.Unlock()
		if stop {
			break
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		dispatched++
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)

			symbols, err := p.IndexFile(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err)
				if ie, ok := err.(*codeerrors.IndexError); ok && ie.IsCritical() {
					criticalErrors++
				} else {
					result.FilesSkipped++
				}
			} else {
				result.FilesProcessed++
				result.SymbolsFound += len(symbols)
			}

			if (i+1)%memoryCheckInterval == 0 && p.store.ShouldTriggerCleanup() {
				evicted := p.store.EvictIfNeeded(evictionBatch)
				if len(evicted) > 0 {
					debug.Logf("pipeline: evicted %d files under memory pressure", len(evicted))
					result.PartialSuccess = true
				}
			}

			if criticalErrors >= maxCriticalErrors && !aborted {
				aborted = true
				result.PartialSuccess = true
				debug.Logf("pipeline: aborting walk after %d critical errors", criticalErrors)
			}
		}(i, path)
	}
	wg.Wait()

	if skipped := len(paths) - dispatched; skipped > 0 {
		result.FilesSkipped += skipped
	}

	if len(result.Errors) > 0 {
		result.PartialSuccess = true
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// IndexWithCache implements spec.md §4.4's index_with_cache: try a fresh
// cache load first, otherwise wipe the Store, run a full IndexDirectory,
// and best-effort save the result back to cache.
func (p *Pipeline) IndexWithCache(root string) Result {
	start := time.Now()

	if p.cacheMgr != nil {
		if loaded, err := p.cacheMgr.LoadIndex(root); err == nil && loaded != nil && cache.ValidateFreshness(loaded) {
			p.store.RestoreFromCache(loaded.NameToIDs, loaded.Symbols, loaded.References, loaded.Files)
			// File contents are not persisted, so the full-text subindex is
			// rebuilt by reading each successfully indexed file from disk.
			for path, fi := range loaded.Files {
				lang, ok := parser.LanguageForPath(path)
				if !ok || fi.ParseStatus.State == symtypes.ParseFailed {
					continue
				}
				if content, err := os.ReadFile(path); err == nil {
					p.store.IndexFileText(path, string(content), string(lang))
				}
			}
			return Result{
				FilesProcessed: len(loaded.Files),
				SymbolsFound:   len(loaded.Symbols),
				DurationMs:     time.Since(start).Milliseconds(),
				CacheUsed:      true,
			}
		}
	}

	p.store.Wipe()
	result := p.IndexDirectory(root)
	result.CacheUsed = false

	if p.cacheMgr != nil {
		if err := p.cacheMgr.SaveIndex(p.store, root); err != nil {
			debug.Logf("pipeline: cache save failed: %v", err)
			result.Errors = append(result.Errors, fmt.Errorf("save cache: %w", err))
			result.PartialSuccess = true
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// IndexFile implements spec.md §4.3's index_file. It holds the Pipeline's
// mutex for its whole body: parsers are single-threaded, and a file is
// an atomic unit of work per spec.md §5.
func (p *Pipeline) IndexFile(path string) ([]symtypes.Symbol, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, codeerrors.NewInvalidPath(path, statErr)
	}

	content, readErr := readFile(path, info.Size())
	if readErr != nil {
		var err *codeerrors.IndexError
		if os.IsPermission(readErr) {
			err = codeerrors.NewPermissionDenied(path, readErr)
		} else {
			err = codeerrors.NewFileSystemError("read", path, readErr)
		}
		p.store.UpdateFileInfo(path, failedFileInfo(info, symtypes.ContentHash{}, err.Error()))
		return nil, err
	}

	if int64(len(content)) > maxFileSize {
		err := codeerrors.NewFileTooLarge(path, int64(len(content)), maxFileSize)
		p.store.UpdateFileInfo(path, failedFileInfo(info, symtypes.ContentHash{}, err.Error()))
		return nil, err
	}

	hash := sha256.Sum256(content)

	if existing, ok := p.store.FileInfo(path); ok && existing.ContentHash == hash {
		return p.store.SymbolsByFile(path), nil
	}

	p.store.RemoveFileRecords(path)

	lang, ok := parser.LanguageForPath(path)
	if !ok {
		err := codeerrors.NewUnsupportedFileType(path)
		p.store.UpdateFileInfo(path, failedFileInfo(info, hash, err.Error()))
		return nil, err
	}

	symbols := p.extractor.ExtractSymbols(content, lang, path)

	stored := 0
	for _, sym := range symbols {
		if err := p.store.InsertSymbol(sym); err != nil {
			debug.Logf("pipeline: %v", err)
			continue
		}
		stored++
	}

	p.linkReferences(path, lang, content)

	status := symtypes.ParseStatus{State: symtypes.ParseSuccess}
	if stored < len(symbols) {
		status = symtypes.ParseStatus{
			State: symtypes.ParsePartialSuccess,
			Notes: fmt.Sprintf("stored %d/%d symbols due to memory constraints", stored, len(symbols)),
		}
	}
	p.store.UpdateFileInfo(path, symtypes.FileInfo{
		LastModified: info.ModTime(),
		ContentHash:  hash,
		SymbolCount:  stored,
		ParseStatus:  status,
		FileSize:     int64(len(content)),
	})

	// The text subindex is keyed by the same path RemoveFileRecords uses so
	// later removal stays in sync (spec.md §4.3 step 12's "normalize...and
	// add" happens at the presentation layer, in internal/pathutil, not
	// here in the storage key).
	p.store.IndexFileText(path, string(content), string(lang))

	return p.store.SymbolsByFile(path), nil
}

// linkReferences implements spec.md §4.3 step 10 and SPEC_FULL.md §4.10:
// for each unresolved reference capture, slice its source text (by the
// byte columns tree-sitter reports, rejecting any slice that would split a
// multi-byte character) to recover a candidate name, then attach one
// resolved Reference to every currently-known symbol sharing that name.
func (p *Pipeline) linkReferences(path string, lang parser.Language, content []byte) {
	refs := p.extractor.ExtractReferences(content, lang, path)
	if len(refs) == 0 {
		return
	}

	lines := splitLinesKeepEmpty(content)
	for _, ref := range refs {
		name, ok := sliceReferenceName(lines, ref.Location)
		if !ok || name == "" {
			continue
		}
		for _, sym := range p.store.GetByName(name) {
			linked := ref
			linked.TargetID = sym.ID
			linked.Kind = symtypes.ReferenceUsage
			p.store.AddReference(sym.ID, linked, path)
		}
	}
}

// sliceReferenceName recovers the substring a reference's location span
// covers. Columns are byte offsets, so the line is sliced by bytes within
// its bounds, and a slice that would split a multi-byte character is
// rejected rather than returned.
func sliceReferenceName(lines [][]rune, loc symtypes.Location) (string, bool) {
	idx := loc.StartLine - 1
	if idx < 0 || idx >= len(lines) {
		return "", false
	}
	line := string(lines[idx])
	start, end := loc.StartColumn, loc.EndColumn
	if start < 0 || end > len(line) || start > end {
		return "", false
	}
	name := line[start:end]
	if !utf8.ValidString(name) {
		return "", false
	}
	return name, true
}

func splitLinesKeepEmpty(content []byte) [][]rune {
	var lines [][]rune
	var current []rune
	for _, r := range string(content) {
		if r == '\n' {
			lines = append(lines, current)
			current = nil
			continue
		}
		current = append(current, r)
	}
	lines = append(lines, current)
	return lines
}

// UpdateFile implements spec.md §4.3's update_file: re-read, re-hash, and
// either return the cached symbols unchanged or delegate to IndexFile.
func (p *Pipeline) UpdateFile(path string) ([]symtypes.Symbol, error) {
	return p.IndexFile(path)
}

// RemoveFile implements spec.md §4.3's remove_file.
func (p *Pipeline) RemoveFile(path string) {
	p.store.RemoveFileRecords(path)
}

// readFile reads path's contents. Files at or above mmapThreshold are
// memory-mapped and the mapped bytes copied into a new slice, so the result
// stays valid after the mapping is released; smaller files go through
// os.ReadFile. This is the mmap-go wiring of SPEC_FULL.md §4.8.
func readFile(path string, size int64) ([]byte, error) {
	if size <= 0 || size < mmapThreshold {
		return os.ReadFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// Some filesystems (network mounts, zero-length races) reject
		// mmap; fall back to a regular read rather than failing the file.
		return os.ReadFile(path)
	}
	defer m.Unmap()

	buf := make([]byte, len(m))
	copy(buf, m)
	return buf, nil
}

func failedFileInfo(info os.FileInfo, hash symtypes.ContentHash, reason string) symtypes.FileInfo {
	return symtypes.FileInfo{
		LastModified: info.ModTime(),
		ContentHash:  hash,
		SymbolCount:  0,
		ParseStatus:  symtypes.ParseStatus{State: symtypes.ParseFailed, Reason: reason},
		FileSize:     info.Size(),
	}
}
