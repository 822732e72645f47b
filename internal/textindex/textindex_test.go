package textindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_UpsertsByPath(t *testing.T) {
	idx := New()
	id1 := idx.Add("a.go", "func helper() {}", "Go")
	id2 := idx.Add("a.go", "func helper() { helper2() }", "Go")
	assert.NotEqual(t, id1, id2, "a fresh id is minted on re-add")

	results := idx.Search("helper", 10, 1)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "helper2")
}

func TestSearch_RanksMoreFrequentTermHigher(t *testing.T) {
	idx := New()
	idx.Add("common.go", "widget widget widget", "Go")
	idx.Add("rare.go", "widget gadget gadget", "Go")

	results := idx.Search("widget", 10, 0)
	require.Len(t, results, 2)
	assert.Equal(t, "common.go", results[0].File)
}

func TestSearch_NoMatchesReturnsEmpty(t *testing.T) {
	idx := New()
	idx.Add("a.go", "func helper() {}", "Go")
	assert.Empty(t, idx.Search("nonexistentterm", 10, 1))
}

func TestRemove_DropsDocument(t *testing.T) {
	idx := New()
	idx.Add("a.go", "func helper() {}", "Go")
	idx.Remove("a.go")
	assert.Empty(t, idx.Search("helper", 10, 1))
}

func TestExtractSnippet_PadsAroundFirstMatch(t *testing.T) {
	text := "one\ntwo\nneedle here\nfour\nfive"
	snippet := extractSnippet(text, "needle", 1)
	assert.Equal(t, "two\nneedle here\nfour", snippet)
}

func TestExtractSnippet_FallsBackWhenNoMatch(t *testing.T) {
	text := "one\ntwo\nthree\nfour\nfive"
	snippet := extractSnippet(text, "absent", 1)
	assert.Equal(t, "one\ntwo\nthree", snippet) // 2*1+1 = 3 lines
}

func TestExtractSnippet_ClampsToFileBounds(t *testing.T) {
	text := "needle"
	snippet := extractSnippet(text, "needle", 5)
	assert.Equal(t, "needle", snippet)
}
