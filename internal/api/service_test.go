package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/codeindex/internal/config"
	"github.com/standardbeagle/codeindex/internal/pipeline"
	"github.com/standardbeagle/codeindex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGo = `package sample

// Greet returns a greeting.
func Greet(name string) string {
	return "hi " + name
}

type Widget struct {
	Name string
}
`

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte(sampleGo), 0o644))

	cfg := config.Default(dir)
	st := store.New(0)
	pl := pipeline.New(cfg, st, nil)
	svc := New(st, pl)

	result, err := svc.IndexCode(dir)
	require.NoError(t, err)
	require.Equal(t, "success", result.Status)

	return svc, dir
}

func TestIndexCode_IndexesDirectory(t *testing.T) {
	svc, dir := newTestService(t)
	result, err := svc.IndexCode(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesIndexed)
}

func TestIndexCode_InvalidPathIsInvalidParams(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.IndexCode("/definitely/does/not/exist")
	require.Error(t, err)
	var ipErr *InvalidParamsError
	assert.ErrorAs(t, err, &ipErr)
}

func TestGetSymbol_IncludesSourceWhenRequested(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.GetSymbol("Greet", true)
	require.NoError(t, err)
	require.Len(t, result.Symbols, 1)
	assert.Contains(t, result.Symbols[0].Source, "return \"hi \"")
}

func TestGetSymbol_WithoutSourceLeavesItEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.GetSymbol("Greet", false)
	require.NoError(t, err)
	require.Len(t, result.Symbols, 1)
	assert.Empty(t, result.Symbols[0].Source)
}

func TestFindSymbols_FiltersByType(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.FindSymbols("Widget", "struct", 10)
	require.NoError(t, err)
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "Widget", result.Symbols[0].Name)
}

func TestFindSymbols_UnknownTypeIsInvalidParams(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.FindSymbols("Widget", "bogus", 10)
	require.Error(t, err)
}

func TestFindSymbols_ClampsLimit(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.FindSymbols("e", "", 1000)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Symbols), maxFindLimit)
}

func TestCodeSearch_FindsIndexedText(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.CodeSearch("greeting", 10, 0, 1)
	require.NoError(t, err)
	assert.NotZero(t, result.TotalFound)
}

func TestCodeSearch_MaxResultsTakesPriorityOverLimit(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.CodeSearch("greeting", 10, 1, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Results), 1)
}

func TestGetFileOutline_RendersSymbols(t *testing.T) {
	svc, dir := newTestService(t)
	outline, err := svc.GetFileOutline(filepath.Join(dir, "a.go"))
	require.NoError(t, err)
	assert.Contains(t, outline, "Greet")
	assert.Contains(t, outline, "Widget")
}

func TestGetFileOutline_RejectsDirectory(t *testing.T) {
	svc, dir := newTestService(t)
	_, err := svc.GetFileOutline(dir)
	assert.Error(t, err)
}

func TestGetDirectoryOutline_RendersAllFiles(t *testing.T) {
	svc, dir := newTestService(t)
	outline, err := svc.GetDirectoryOutline(dir, nil)
	require.NoError(t, err)
	assert.Contains(t, outline, "a.go")
	assert.Contains(t, outline, "Greet")
}
