// Package symtypes holds the normalized data model shared by every core
// component: symbols, references, file metadata, and the text documents fed
// to the relevance index.
package symtypes

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SymbolID is a stable fingerprint of a symbol's defining position. Two
// extractions of the same (file, line, column) collide on the same ID.
type SymbolID uint64

// UnresolvedID is the value NewSymbolID never returns, so no real symbol
// carries it. Unresolved references from the Extractor do not use it: they
// carry a per-file sentinel, NewSymbolID(file, -1, -1).
const UnresolvedID SymbolID = 0

// NewSymbolID fingerprints a definition site. Identity equality matters more
// than collision resistance, so a 64-bit non-cryptographic hash is enough.
func NewSymbolID(filePath string, startLine, startColumn int) SymbolID {
	h := xxhash.New()
	_, _ = h.WriteString(filePath)
	var pos [16]byte
	binary.LittleEndian.PutUint64(pos[0:8], uint64(int64(startLine)))
	binary.LittleEndian.PutUint64(pos[8:16], uint64(int64(startColumn)))
	_, _ = h.Write(pos[:])
	sum := h.Sum64()
	if sum == uint64(UnresolvedID) {
		sum++ // keep 0 reserved for "unresolved"
	}
	return SymbolID(sum)
}

// Kind is the closed set of symbol kinds the system understands.
type Kind string

const (
	KindModule    Kind = "Module"
	KindClass     Kind = "Class"
	KindInterface Kind = "Interface"
	KindMethod    Kind = "Method"
	KindFunction  Kind = "Function"
	KindConstant  Kind = "Constant"
	KindVariable  Kind = "Variable"
	KindEnum      Kind = "Enum"
	KindStruct    Kind = "Struct"
	KindImport    Kind = "Import"
)

// Visibility mirrors the access modifiers source languages expose. Most
// languages don't let the query layer determine this cheaply, so it
// defaults to Public.
type Visibility string

const (
	VisibilityPublic    Visibility = "Public"
	VisibilityPrivate   Visibility = "Private"
	VisibilityProtected Visibility = "Protected"
	VisibilityInternal  Visibility = "Internal"
)

// Location pinpoints a span in a source file. Lines are 1-based (the
// tree-sitter row plus one); columns are the 0-based byte offsets
// tree-sitter reports.
type Location struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

// Symbol is one definition site.
type Symbol struct {
	ID         SymbolID   `json:"id"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"kind"`
	Location   Location   `json:"location"`
	Namespace  string     `json:"namespace,omitempty"`
	Visibility Visibility `json:"visibility"`
	Source     string     `json:"source,omitempty"`
}

// ReferenceKind classifies a usage site.
type ReferenceKind string

const (
	ReferenceDefinition ReferenceKind = "Definition"
	ReferenceUsage      ReferenceKind = "Usage"
	ReferenceImport     ReferenceKind = "Import"
	ReferenceCall       ReferenceKind = "Call"
)

// Reference is one textual occurrence of a name that may denote a Symbol.
type Reference struct {
	Location Location      `json:"location"`
	Kind     ReferenceKind `json:"kind"`
	TargetID SymbolID      `json:"target_id"`
}

// ParseStatus records what happened the last time a file was extracted.
type ParseStatus struct {
	State  ParseState `json:"state"`
	Notes  string     `json:"notes,omitempty"`  // PartialSuccess detail
	Reason string     `json:"reason,omitempty"` // Failed detail
}

type ParseState string

const (
	ParseNotParsed      ParseState = "NotParsed"
	ParseSuccess        ParseState = "Success"
	ParsePartialSuccess ParseState = "PartialSuccess"
	ParseFailed         ParseState = "Failed"
)

// ContentHash is a 256-bit digest of a file's raw bytes.
type ContentHash [32]byte

// FileInfo is the Store's per-file bookkeeping record.
type FileInfo struct {
	LastModified time.Time   `json:"last_modified"`
	ContentHash  ContentHash `json:"content_hash"`
	SymbolCount  int         `json:"symbol_count"`
	ParseStatus  ParseStatus `json:"parse_status"`
	FileSize     int64       `json:"file_size"`
}

// TextDocID identifies a document in the text subindex.
type TextDocID uint64

// TextDocument is one whole-file document indexed for full-text search.
type TextDocument struct {
	DocID    TextDocID `json:"doc_id"`
	File     string    `json:"file"`
	Language string    `json:"language_tag"`
	RawText  string    `json:"raw_text"`
}
