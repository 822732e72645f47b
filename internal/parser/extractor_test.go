package parser

import (
	"testing"

	"github.com/standardbeagle/codeindex/internal/symtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolNames(symbols []symtypes.Symbol) map[string]symtypes.Kind {
	out := make(map[string]symtypes.Kind, len(symbols))
	for _, s := range symbols {
		out[s.Name] = s.Kind
	}
	return out
}

func TestExtractor_Go_Functions(t *testing.T) {
	ex := NewExtractor()
	code := `package main

func add(a, b int) int {
	return a + b
}

type Greeter struct{}

func (g Greeter) Greet() string {
	return "hi"
}
`
	symbols := ex.ExtractSymbols([]byte(code), LanguageGo, "main.go")
	require.NotEmpty(t, symbols)

	names := symbolNames(symbols)
	assert.Equal(t, symtypes.KindFunction, names["add"])
	assert.Equal(t, symtypes.KindMethod, names["Greet"])
	assert.Equal(t, symtypes.KindStruct, names["Greeter"])
}

func TestExtractor_Go_LinesAreOneBasedColumnsZeroBased(t *testing.T) {
	ex := NewExtractor()
	code := "package main\n\nfunc add() {}\n"
	symbols := ex.ExtractSymbols([]byte(code), LanguageGo, "main.go")
	require.Len(t, symbols, 1)
	assert.Equal(t, 3, symbols[0].Location.StartLine)
	assert.Equal(t, 0, symbols[0].Location.StartColumn)
}

func TestExtractor_Python_FunctionsAndClasses(t *testing.T) {
	ex := NewExtractor()
	code := `
def greet(name):
    return name

class Animal:
    def speak(self):
        pass
`
	symbols := ex.ExtractSymbols([]byte(code), LanguagePython, "animal.py")
	names := symbolNames(symbols)

	assert.Equal(t, symtypes.KindFunction, names["greet"])
	assert.Equal(t, symtypes.KindClass, names["Animal"])
	assert.Equal(t, symtypes.KindMethod, names["speak"])
}

func TestExtractor_UnknownLanguage_ReturnsEmpty(t *testing.T) {
	ex := NewExtractor()
	symbols := ex.ExtractSymbols([]byte("anything"), Language("Cobol"), "x.cob")
	assert.Empty(t, symbols)
}

func TestExtractor_SyntaxErrors_DoNotPanic(t *testing.T) {
	ex := NewExtractor()
	// Deliberately malformed: unbalanced braces. extract_symbols must still
	// be total and return whatever the query could capture.
	code := "package main\nfunc broken( {\n"
	assert.NotPanics(t, func() {
		ex.ExtractSymbols([]byte(code), LanguageGo, "broken.go")
	})
}

func TestExtractor_References_AreUnresolvedWithSentinelTarget(t *testing.T) {
	ex := NewExtractor()
	code := `package main

func helper() {}

func main() {
	helper()
}
`
	refs := ex.ExtractReferences([]byte(code), LanguageGo, "main.go")
	require.NotEmpty(t, refs)
	for _, r := range refs {
		assert.Equal(t, symtypes.ReferenceUsage, r.Kind)
	}
	// Every reference from the same file shares the same sentinel target,
	// since resolution is deferred to the Pipeline.
	for i := 1; i < len(refs); i++ {
		assert.Equal(t, refs[0].TargetID, refs[i].TargetID)
	}
}
