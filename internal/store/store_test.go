package store

import (
	"fmt"
	"testing"

	"github.com/standardbeagle/codeindex/internal/symtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sym(name, file string, line int) symtypes.Symbol {
	loc := symtypes.Location{File: file, StartLine: line, StartColumn: 0, EndLine: line, EndColumn: len(name)}
	return symtypes.Symbol{
		ID:         symtypes.NewSymbolID(file, line, 0),
		Name:       name,
		Kind:       symtypes.KindFunction,
		Location:   loc,
		Visibility: symtypes.VisibilityPublic,
	}
}

func TestInsertAndGetByName(t *testing.T) {
	s := New(0)
	require.NoError(t, s.InsertSymbol(sym("foo", "a.go", 1)))

	symbols := s.GetByName("foo")
	require.Len(t, symbols, 1)
	assert.Equal(t, "foo", symbols[0].Name)
}

func TestInsertSymbol_FailsOverBudget(t *testing.T) {
	s := New(1) // 1 byte budget, any symbol exceeds it
	err := s.InsertSymbol(sym("foo", "a.go", 1))
	require.Error(t, err)
	assert.Empty(t, s.GetByName("foo"))
}

func TestInsertSymbolUnchecked_BypassesBudgetButAccounts(t *testing.T) {
	s := New(1)
	s.InsertSymbolUnchecked(sym("foo", "a.go", 1))
	assert.NotEmpty(t, s.GetByName("foo"))
	assert.Greater(t, s.MemoryStats().CurrentBytes, int64(0))
}

func TestRemoveFileRecords_DropsSymbolsReferencesAndFileInfo(t *testing.T) {
	s := New(0)
	a := sym("foo", "a.go", 1)
	require.NoError(t, s.InsertSymbol(a))
	s.UpdateFileInfo("a.go", symtypes.FileInfo{SymbolCount: 1})

	ref := symtypes.Reference{Location: symtypes.Location{File: "b.go", StartLine: 5}, Kind: symtypes.ReferenceUsage, TargetID: a.ID}
	s.AddReference(a.ID, ref, "b.go")

	s.RemoveFileRecords("a.go")

	assert.Empty(t, s.GetByName("foo"))
	_, ok := s.FileInfo("a.go")
	assert.False(t, ok)
	assert.Empty(t, s.ReferencesByName("foo"))
}

func TestRemoveFileRecords_RetractsReferencesContributedByOtherFile(t *testing.T) {
	s := New(0)
	target := sym("foo", "a.go", 1)
	require.NoError(t, s.InsertSymbol(target))

	ref := symtypes.Reference{Location: symtypes.Location{File: "b.go", StartLine: 5}, Kind: symtypes.ReferenceUsage, TargetID: target.ID}
	s.AddReference(target.ID, ref, "b.go")
	require.Len(t, s.ReferencesByName("foo"), 1)

	s.RemoveFileRecords("b.go")

	assert.Empty(t, s.ReferencesByName("foo"), "b.go's contributed reference must be retracted even though foo lives in a.go")
	assert.NotEmpty(t, s.GetByName("foo"), "a.go's own symbol is untouched")
}

func TestFindByPrefix_ReturnsUnionAcrossMatchingNames(t *testing.T) {
	s := New(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertSymbol(sym(fmt.Sprintf("test_function_%d", i), "a.go", i+1)))
	}
	require.NoError(t, s.InsertSymbol(sym("other", "a.go", 100)))

	found := s.FindByPrefix("test_")
	assert.Len(t, found, 5)
	for _, sym := range found {
		assert.Contains(t, sym.Name, "test_")
	}
}

func TestFindFuzzy_RanksByDescendingScore(t *testing.T) {
	s := New(0)
	require.NoError(t, s.InsertSymbol(sym("test_function", "a.go", 1)))
	require.NoError(t, s.InsertSymbol(sym("test_struct", "a.go", 2)))
	require.NoError(t, s.InsertSymbol(sym("other_function", "a.go", 3)))

	matches := s.FindFuzzy("tst")
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	names := map[string]bool{}
	for _, m := range matches {
		names[m.Symbol.Name] = true
	}
	assert.True(t, names["test_function"])
	assert.True(t, names["test_struct"])
}

func TestSymbolsByFile(t *testing.T) {
	s := New(0)
	require.NoError(t, s.InsertSymbol(sym("foo", "a.go", 1)))
	require.NoError(t, s.InsertSymbol(sym("bar", "a.go", 2)))
	require.NoError(t, s.InsertSymbol(sym("baz", "b.go", 1)))

	symbols := s.SymbolsByFile("a.go")
	assert.Len(t, symbols, 2)
}

func TestMemoryStats_ReflectsCurrentUsage(t *testing.T) {
	s := New(0)
	before := s.MemoryStats().CurrentBytes
	require.NoError(t, s.InsertSymbol(sym("foo", "a.go", 1)))
	after := s.MemoryStats().CurrentBytes
	assert.Greater(t, after, before)
}

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	s := New(0)
	require.NoError(t, s.InsertSymbol(sym("foo", "a.go", 1)))
	s.UpdateFileInfo("a.go", symtypes.FileInfo{SymbolCount: 1})

	nameToIDs, symbols, references, files := s.SnapshotForCache()

	dst := New(0)
	dst.RestoreFromCache(nameToIDs, symbols, references, files)

	assert.Len(t, dst.GetByName("foo"), 1)
	_, ok := dst.FileInfo("a.go")
	assert.True(t, ok)
	assert.Greater(t, dst.MemoryStats().CurrentBytes, int64(0))
}

func TestWipe_ClearsAllState(t *testing.T) {
	s := New(0)
	require.NoError(t, s.InsertSymbol(sym("foo", "a.go", 1)))
	s.UpdateFileInfo("a.go", symtypes.FileInfo{SymbolCount: 1})

	s.Wipe()

	assert.Empty(t, s.GetByName("foo"))
	_, ok := s.FileInfo("a.go")
	assert.False(t, ok)
	assert.Equal(t, int64(0), s.MemoryStats().CurrentBytes)
}

func TestSymbolsUnderDirectory_MatchesPrefixOnly(t *testing.T) {
	s := New(0)
	require.NoError(t, s.InsertSymbol(sym("foo", "/proj/a.go", 1)))
	require.NoError(t, s.InsertSymbol(sym("bar", "/proj/sub/b.go", 1)))
	require.NoError(t, s.InsertSymbol(sym("baz", "/other/c.go", 1)))

	found := s.SymbolsUnderDirectory("/proj")
	names := map[string]bool{}
	for _, sym := range found {
		names[sym.Name] = true
	}
	assert.True(t, names["foo"])
	assert.True(t, names["bar"])
	assert.False(t, names["baz"])
}

func TestEvictIfNeeded_StopsWhenPressureSubsides(t *testing.T) {
	s := New(6000) // small budget so the 20 symbols below fit but trip the 80% warning
	for i := 0; i < 20; i++ {
		require.NoError(t, s.InsertSymbol(sym(fmt.Sprintf("sym_%d", i), fmt.Sprintf("file_%d.go", i), 1)))
		s.SymbolsByFile(fmt.Sprintf("file_%d.go", i)) // populate LRU order
	}
	require.True(t, s.MemoryStats().UnderPressure)

	evicted := s.EvictIfNeeded(20)
	assert.NotEmpty(t, evicted)
}
