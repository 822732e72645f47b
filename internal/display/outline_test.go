package display

import (
	"testing"

	"github.com/standardbeagle/codeindex/internal/symtypes"
	"github.com/stretchr/testify/assert"
)

func sym(name string, kind symtypes.Kind, file string, line int) symtypes.Symbol {
	return symtypes.Symbol{
		Name:     name,
		Kind:     kind,
		Location: symtypes.Location{File: file, StartLine: line},
	}
}

func TestFileOutline_GroupsByKindAndSortsByLine(t *testing.T) {
	symbols := []symtypes.Symbol{
		sym("Bar", symtypes.KindFunction, "a.go", 20),
		sym("Foo", symtypes.KindFunction, "a.go", 5),
		sym("Widget", symtypes.KindStruct, "a.go", 1),
	}

	out := FileOutline(symbols)
	assert.Contains(t, out, "Functions:\n")
	assert.Contains(t, out, "Structs:\n")
	fooIdx := indexOf(out, "Foo")
	barIdx := indexOf(out, "Bar")
	assert.Less(t, fooIdx, barIdx, "Foo (line 5) must render before Bar (line 20)")
}

func TestFileOutline_EmptyReturnsPlaceholder(t *testing.T) {
	assert.Equal(t, "(no symbols)\n", FileOutline(nil))
}

func TestKindsForIncludes_DefaultsWhenEmpty(t *testing.T) {
	kinds := KindsForIncludes(nil)
	assert.True(t, kinds[symtypes.KindFunction])
	assert.True(t, kinds[symtypes.KindClass])
	assert.True(t, kinds[symtypes.KindStruct])
	assert.False(t, kinds[symtypes.KindVariable])
}

func TestKindsForIncludes_CaseInsensitive(t *testing.T) {
	kinds := KindsForIncludes([]string{"ENUMS", "Imports"})
	assert.True(t, kinds[symtypes.KindEnum])
	assert.True(t, kinds[symtypes.KindImport])
}

func TestDirectoryOutline_SummarizesAcrossFiles(t *testing.T) {
	filesSymbols := map[string][]symtypes.Symbol{
		"a.go": {sym("Foo", symtypes.KindFunction, "a.go", 1)},
		"b.go": {sym("Bar", symtypes.KindFunction, "b.go", 1), sym("Baz", symtypes.KindFunction, "b.go", 2)},
	}

	out := DirectoryOutline("/proj", filesSymbols)
	assert.Contains(t, out, "Directory: /proj (2 files)")
	assert.Contains(t, out, "Summary: 3 symbols across 2 files")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
