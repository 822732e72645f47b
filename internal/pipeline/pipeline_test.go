package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/codeindex/internal/cache"
	"github.com/standardbeagle/codeindex/internal/config"
	"github.com/standardbeagle/codeindex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package sample

func Greet(name string) string {
	return "hi " + name
}

func Caller() string {
	return Greet("world")
}
`

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	st := store.New(0)
	return New(cfg, st, nil), st, dir
}

func TestIndexFile_ExtractsSymbolsAndLinksReferences(t *testing.T) {
	p, st, dir := newTestPipeline(t)
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte(goSource), 0o644))

	symbols, err := p.IndexFile(path)
	require.NoError(t, err)
	assert.Len(t, symbols, 2)

	refs := st.ReferencesByName("Greet")
	assert.NotEmpty(t, refs, "Caller's invocation of Greet must resolve")
}

func TestIndexFile_UnchangedContentShortCircuits(t *testing.T) {
	p, st, dir := newTestPipeline(t)
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte(goSource), 0o644))

	_, err := p.IndexFile(path)
	require.NoError(t, err)
	before := st.MemoryStats().CurrentBytes

	_, err = p.IndexFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, st.MemoryStats().CurrentBytes, "re-indexing unchanged content must not duplicate records")
}

func TestIndexFile_UnsupportedExtensionReturnsError(t *testing.T) {
	p, _, dir := newTestPipeline(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := p.IndexFile(path)
	assert.Error(t, err)
}

func TestIndexFile_TooLargeReturnsError(t *testing.T) {
	p, _, dir := newTestPipeline(t)
	path := filepath.Join(dir, "big.go")
	content := make([]byte, maxFileSize+1)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := p.IndexFile(path)
	assert.Error(t, err)
}

func TestIndexDirectory_ProcessesAllSourceFiles(t *testing.T) {
	p, _, dir := newTestPipeline(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte(goSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("not code"), 0o644))

	result := p.IndexDirectory(dir)
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 2, result.SymbolsFound)
}

func TestRemoveFile_DropsStoreRecords(t *testing.T) {
	p, st, dir := newTestPipeline(t)
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte(goSource), 0o644))

	_, err := p.IndexFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, st.GetByName("Greet"))

	p.RemoveFile(path)
	assert.Empty(t, st.GetByName("Greet"))
}

func TestIndexWithCache_SavesAndReloadsFromDisk(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.go"), []byte(goSource), 0o644))

	cacheMgr, err := cache.NewManager(t.TempDir())
	require.NoError(t, err)
	cfg := config.Default(srcDir)

	first := New(cfg, store.New(0), cacheMgr)
	firstResult := first.IndexWithCache(srcDir)
	assert.False(t, firstResult.CacheUsed)
	assert.Equal(t, 1, firstResult.FilesProcessed)

	second := New(cfg, store.New(0), cacheMgr)
	secondResult := second.IndexWithCache(srcDir)
	assert.True(t, secondResult.CacheUsed)
}

func TestSplitLinesKeepEmpty_PreservesTrailingEmptyLine(t *testing.T) {
	lines := splitLinesKeepEmpty([]byte("a\nb\n"))
	assert.Equal(t, [][]rune{{'a'}, {'b'}, {}}, lines)
}
