// Package api implements the seven-operation request surface spec.md §6
// defines, as one internal/api.Service shared by the MCP server and the
// CLI convenience wrapper (SPEC_FULL.md §6's NEW clause: "exactly one
// implementation each"). Every operation here is a thin translation layer
// over internal/store, internal/pipeline, and internal/display — the path
// resolution and JSON-shaped request/response types this package owns are
// the "external collaborator" spec.md §1 says the core treats only through
// its interface.
package api

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/standardbeagle/codeindex/internal/cache"
	"github.com/standardbeagle/codeindex/internal/codeerrors"
	"github.com/standardbeagle/codeindex/internal/display"
	"github.com/standardbeagle/codeindex/internal/parser"
	"github.com/standardbeagle/codeindex/internal/pathutil"
	"github.com/standardbeagle/codeindex/internal/pipeline"
	"github.com/standardbeagle/codeindex/internal/store"
	"github.com/standardbeagle/codeindex/internal/symtypes"
)

// Service wires the Store and Pipeline behind the seven named operations.
type Service struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
}

// New builds a Service around an already-constructed Store and Pipeline.
func New(st *store.Store, pl *pipeline.Pipeline) *Service {
	return &Service{Store: st, Pipeline: pl}
}

// InvalidParamsError marks a request whose input failed path resolution or
// type validation, per spec.md §6's path-resolution collaborator contract.
type InvalidParamsError struct {
	Message string
}

func (e *InvalidParamsError) Error() string { return e.Message }

func invalidParams(format string, args ...interface{}) error {
	return &InvalidParamsError{Message: fmt.Sprintf(format, args...)}
}

// --- index_code ---------------------------------------------------------

type IndexCodeResult struct {
	Status        string   `json:"status"`
	FilesIndexed  int      `json:"files_indexed"`
	SymbolsFound  int      `json:"symbols_found"`
	Errors        []string `json:"errors"`
	DurationMs    int64    `json:"duration_ms"`
}

// IndexCode implements spec.md §6's index_code: path may be a file or a
// directory. A directory goes through the cache-backed pipeline entry
// point; a single file is indexed directly. The root path itself failing
// to resolve is the one case that surfaces as an operation error rather
// than an entry in errors[], per spec.md §7's "user-visible behavior".
func (s *Service) IndexCode(path string) (IndexCodeResult, error) {
	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return IndexCodeResult{}, invalidParams("index_code: %v", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return IndexCodeResult{}, invalidParams("index_code: %v", err)
	}

	var result pipeline.Result
	if info.IsDir() {
		result = s.Pipeline.IndexWithCache(resolved)
	} else {
		symbols, fileErr := s.Pipeline.IndexFile(resolved)
		if fileErr != nil {
			result.Errors = append(result.Errors, fileErr)
			result.FilesSkipped = 1
		} else {
			result.FilesProcessed = 1
			result.SymbolsFound = len(symbols)
		}
	}

	status := "success"
	if result.PartialSuccess || len(result.Errors) > 0 {
		status = "partial_success"
	}

	multi := codeerrors.NewMultiError(result.Errors)
	errs := make([]string, len(multi.Errors))
	for i, e := range multi.Unwrap() {
		errs[i] = e.Error()
	}

	return IndexCodeResult{
		Status:       status,
		FilesIndexed: result.FilesProcessed,
		SymbolsFound: result.SymbolsFound,
		Errors:       errs,
		DurationMs:   result.DurationMs,
	}, nil
}

// --- get_symbol ----------------------------------------------------------

type GetSymbolResult struct {
	Symbols []symtypes.Symbol `json:"symbols"`
}

// GetSymbol implements spec.md §6's get_symbol: exact-name lookup,
// optionally populating Source by reading the defining file's
// [start_line, end_line] span.
func (s *Service) GetSymbol(name string, includeSource bool) (GetSymbolResult, error) {
	symbols := s.Store.GetByName(name)
	if includeSource {
		for i := range symbols {
			if src, err := readSourceSpan(symbols[i].Location); err == nil {
				symbols[i].Source = src
			}
		}
	}
	return GetSymbolResult{Symbols: symbols}, nil
}

func readSourceSpan(loc symtypes.Location) (string, error) {
	f, err := os.Open(loc.File)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	line := 0
	for scanner.Scan() {
		line++
		if line < loc.StartLine {
			continue
		}
		if line > loc.EndLine {
			break
		}
		lines = append(lines, scanner.Text())
	}
	return strings.Join(lines, "\n"), scanner.Err()
}

// --- get_symbol_references ------------------------------------------------

type GetSymbolReferencesResult struct {
	References []symtypes.Reference `json:"references"`
}

func (s *Service) GetSymbolReferences(name string) (GetSymbolReferencesResult, error) {
	return GetSymbolReferencesResult{References: s.Store.ReferencesByName(name)}, nil
}

// --- find_symbols ----------------------------------------------------------

const (
	defaultFindLimit = 10
	minFindLimit     = 1
	maxFindLimit     = 50
)

// symbolTypeAliases implements spec.md §6's case-insensitive symbol-type
// filter, including every named alias.
var symbolTypeAliases = map[string]symtypes.Kind{
	"function":  symtypes.KindFunction,
	"method":    symtypes.KindMethod,
	"class":     symtypes.KindClass,
	"struct":    symtypes.KindStruct,
	"enum":      symtypes.KindEnum,
	"interface": symtypes.KindInterface,
	"trait":     symtypes.KindInterface,
	"constant":  symtypes.KindConstant,
	"const":     symtypes.KindConstant,
	"variable":  symtypes.KindVariable,
	"var":       symtypes.KindVariable,
	"module":    symtypes.KindModule,
	"mod":       symtypes.KindModule,
	"import":    symtypes.KindImport,
}

type FindSymbolsResult struct {
	Symbols []symtypes.Symbol `json:"symbols"`
}

// FindSymbols implements spec.md §6's find_symbols: fuzzy match against
// the Store's name index, optionally filtered by kind, clamped to
// [1, 50] results (default 10).
func (s *Service) FindSymbols(query, symbolType string, limit int) (FindSymbolsResult, error) {
	if limit <= 0 {
		limit = defaultFindLimit
	}
	if limit < minFindLimit {
		limit = minFindLimit
	}
	if limit > maxFindLimit {
		limit = maxFindLimit
	}

	var wantKind symtypes.Kind
	wantFilter := false
	if symbolType != "" {
		kind, ok := symbolTypeAliases[strings.ToLower(symbolType)]
		if !ok {
			return FindSymbolsResult{}, invalidParams("find_symbols: unknown symbol_type %q", symbolType)
		}
		wantKind = kind
		wantFilter = true
	}

	matches := s.Store.FindFuzzy(query)

	out := make([]symtypes.Symbol, 0, limit)
	for _, m := range matches {
		if wantFilter && m.Symbol.Kind != wantKind {
			continue
		}
		out = append(out, m.Symbol)
		if len(out) >= limit {
			break
		}
	}
	return FindSymbolsResult{Symbols: out}, nil
}

// --- code_search -----------------------------------------------------------

const defaultSearchLimit = 10
const defaultContextLines = 2

type CodeSearchResultItem struct {
	Score    float64 `json:"score"`
	File     string  `json:"file"`
	Language string  `json:"language"`
	Snippet  string  `json:"snippet"`
}

type CodeSearchResult struct {
	Results    []CodeSearchResultItem `json:"results"`
	TotalFound int                    `json:"total_found"`
}

// CodeSearch implements spec.md §6's code_search over the full-text
// subindex. maxResults is the tool's max_results alias for limit; when
// both are given max_results takes priority, matching the original's
// params.max_results.or(params.limit).unwrap_or(10).
func (s *Service) CodeSearch(query string, limit, maxResults, contextLines int) (CodeSearchResult, error) {
	effectiveLimit := maxResults
	if effectiveLimit <= 0 {
		effectiveLimit = limit
	}
	if effectiveLimit <= 0 {
		effectiveLimit = defaultSearchLimit
	}
	if contextLines < 0 {
		contextLines = defaultContextLines
	}

	results := s.Store.SearchText(query, effectiveLimit, contextLines)
	items := make([]CodeSearchResultItem, len(results))
	for i, r := range results {
		items[i] = CodeSearchResultItem{Score: r.Score, File: r.File, Language: r.Language, Snippet: r.Snippet}
	}
	return CodeSearchResult{Results: items, TotalFound: len(items)}, nil
}

// --- get_file_outline --------------------------------------------------

func (s *Service) GetFileOutline(filePath string) (string, error) {
	resolved, err := pathutil.Resolve(filePath)
	if err != nil {
		return "", invalidParams("get_file_outline: %v", err)
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", invalidParams("get_file_outline: %q is not a file", filePath)
	}

	symbols := s.Store.SymbolsByFile(resolved)
	return display.FileOutline(symbols), nil
}

// --- get_directory_outline ----------------------------------------------

func (s *Service) GetDirectoryOutline(directoryPath string, includes []string) (string, error) {
	resolved, err := pathutil.Resolve(directoryPath)
	if err != nil {
		return "", invalidParams("get_directory_outline: %v", err)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", invalidParams("get_directory_outline: %q is not a directory", directoryPath)
	}

	wantKinds := display.KindsForIncludes(includes)

	filesSymbols := make(map[string][]symtypes.Symbol)
	for _, sym := range s.Store.SymbolsUnderDirectory(resolved) {
		if !wantKinds[sym.Kind] {
			continue
		}
		rel := pathutil.ToRelative(sym.Location.File, resolved)
		filesSymbols[rel] = append(filesSymbols[rel], sym)
	}

	return display.DirectoryOutline(directoryPath, filesSymbols), nil
}

// IsSourcePath reports whether path carries a source extension of one of
// the fifteen supported languages, the same predicate the Watcher uses to decide which
// filesystem events to track (spec.md §4.6).
func IsSourcePath(path string) bool {
	_, ok := parser.LanguageForPath(path)
	return ok
}

// CacheManagerOrNil builds a cache.Manager, logging (but not failing) on
// error so callers can run without a persistent cache if the cache
// directory can't be created.
func CacheManagerOrNil(override string) *cache.Manager {
	mgr, err := cache.NewManager(override)
	if err != nil {
		return nil
	}
	return mgr
}
