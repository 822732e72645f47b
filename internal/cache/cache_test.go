package cache

import (
	"os"
	"testing"
	"time"

	"github.com/standardbeagle/codeindex/internal/symtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	nameToIDs  map[string][]symtypes.SymbolID
	symbols    map[symtypes.SymbolID]symtypes.Symbol
	references map[symtypes.SymbolID][]symtypes.Reference
	files      map[string]symtypes.FileInfo
}

func (f *fakeStore) SnapshotForCache() (map[string][]symtypes.SymbolID, map[symtypes.SymbolID]symtypes.Symbol, map[symtypes.SymbolID][]symtypes.Reference, map[string]symtypes.FileInfo) {
	return f.nameToIDs, f.symbols, f.references, f.files
}

func (f *fakeStore) RestoreFromCache(nameToIDs map[string][]symtypes.SymbolID, symbols map[symtypes.SymbolID]symtypes.Symbol, references map[symtypes.SymbolID][]symtypes.Reference, files map[string]symtypes.FileInfo) {
	f.nameToIDs, f.symbols, f.references, f.files = nameToIDs, symbols, references, files
}

func newFakeStore(filePath string) *fakeStore {
	id := symtypes.NewSymbolID(filePath, 1, 0)
	return &fakeStore{
		nameToIDs: map[string][]symtypes.SymbolID{"foo": {id}},
		symbols:   map[symtypes.SymbolID]symtypes.Symbol{id: {ID: id, Name: "foo", Location: symtypes.Location{File: filePath, StartLine: 1}}},
		references: map[symtypes.SymbolID][]symtypes.Reference{},
		files:      map[string]symtypes.FileInfo{filePath: {SymbolCount: 1}},
	}
}

func TestSaveAndLoadIndex_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(dir)
	require.NoError(t, err)

	srcFile := dir + "/a.go"
	require.NoError(t, os.WriteFile(srcFile, []byte("package a"), 0o644))

	store := newFakeStore(srcFile)
	require.NoError(t, mgr.SaveIndex(store, dir))

	loaded, err := mgr.LoadIndex(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Contains(t, loaded.NameToIDs, "foo")
}

func TestLoadIndex_MissingFileReturnsNilNil(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	loaded, err := mgr.LoadIndex("/does/not/exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadIndex_CorruptFileIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(dir)
	require.NoError(t, err)

	path := mgr.pathFor(dir)
	require.NoError(t, os.WriteFile(path, []byte("not a gob payload"), 0o644))

	loaded, err := mgr.LoadIndex(dir)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt cache file must be removed")
}

func TestValidateIntegrity_CatchesDanglingNameReference(t *testing.T) {
	index := &PersistedIndex{
		NameToIDs: map[string][]symtypes.SymbolID{"foo": {symtypes.SymbolID(123)}},
		Symbols:   map[symtypes.SymbolID]symtypes.Symbol{},
	}
	assert.False(t, validateIntegrity(index))
}

func TestValidateFreshness_StaleWhenFileModifiedAfterCreation(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/a.go"
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	index := &PersistedIndex{
		CreatedAt: time.Now().Add(-time.Hour),
		Files:     map[string]symtypes.FileInfo{path: {}},
	}
	assert.False(t, ValidateFreshness(index))
}

func TestValidateFreshness_StaleWhenFileMissing(t *testing.T) {
	index := &PersistedIndex{
		CreatedAt: time.Now(),
		Files:     map[string]symtypes.FileInfo{"/gone.go": {}},
	}
	assert.False(t, ValidateFreshness(index))
}

func TestClear_RemovesCacheFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(dir)
	require.NoError(t, err)

	store := newFakeStore(dir + "/a.go")
	require.NoError(t, mgr.SaveIndex(store, dir))
	require.NoError(t, mgr.Clear(dir))

	loaded, err := mgr.LoadIndex(dir)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
