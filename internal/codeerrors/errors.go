// Package codeerrors implements the error taxonomy the indexing pipeline
// classifies failures into, mirroring how the teacher's internal/errors
// package gives each failure kind its own struct with an Unwrap chain.
package codeerrors

import (
	"fmt"
	"time"
)

// Kind names one entry in the error taxonomy.
type Kind string

const (
	KindParse               Kind = "ParseError"
	KindUnsupportedFileType Kind = "UnsupportedFileType"
	KindFileTooLarge        Kind = "FileTooLarge"
	KindPermissionDenied    Kind = "PermissionDenied"
	KindInvalidPath         Kind = "InvalidPath"
	KindFileSystem          Kind = "FileSystemError"
	KindSerialization       Kind = "SerializationError"
	KindMemoryLimitExceeded Kind = "MemoryLimitExceeded"
	KindIndexing            Kind = "IndexingError"
)

// recoverable records which kinds the pipeline continues past at file
// granularity versus which abort the whole walk (spec §7).
var recoverable = map[Kind]bool{
	KindParse:               true,
	KindUnsupportedFileType: true,
	KindFileTooLarge:        true,
	KindPermissionDenied:    true,
	KindInvalidPath:         true, // context-dependent; caller may override
	KindFileSystem:          false,
	KindSerialization:       false,
	KindMemoryLimitExceeded: false,
	KindIndexing:            false, // context-dependent; caller may override
}

// IndexError is the single concrete error type for every taxonomy entry.
// Distinct constructors set the Kind and message so call sites read like
// the teacher's per-kind structs without needing nine separate types.
type IndexError struct {
	Kind       Kind
	Path       string
	Op         string
	Underlying error
	Timestamp  time.Time
	recoverable bool
}

func newErr(kind Kind, op, path string, err error) *IndexError {
	return &IndexError{
		Kind:        kind,
		Path:        path,
		Op:          op,
		Underlying:  err,
		Timestamp:   time.Now(),
		recoverable: recoverable[kind],
	}
}

func NewParseError(path string, err error) *IndexError {
	return newErr(KindParse, "extract", path, err)
}

func NewUnsupportedFileType(path string) *IndexError {
	return newErr(KindUnsupportedFileType, "classify", path, nil)
}

func NewFileTooLarge(path string, size int64, limit int64) *IndexError {
	return newErr(KindFileTooLarge, "read", path,
		fmt.Errorf("file size %d exceeds limit %d", size, limit))
}

func NewPermissionDenied(path string, err error) *IndexError {
	return newErr(KindPermissionDenied, "read", path, err)
}

func NewInvalidPath(path string, err error) *IndexError {
	return newErr(KindInvalidPath, "resolve", path, err)
}

func NewFileSystemError(op, path string, err error) *IndexError {
	return newErr(KindFileSystem, op, path, err)
}

func NewSerializationError(op, path string, err error) *IndexError {
	return newErr(KindSerialization, op, path, err)
}

func NewMemoryLimitExceeded(path string, requested, limit uint64) *IndexError {
	return newErr(KindMemoryLimitExceeded, "insert_symbol", path,
		fmt.Errorf("allocating %d bytes would exceed limit %d", requested, limit))
}

func NewIndexingError(op string, err error) *IndexError {
	return newErr(KindIndexing, op, "", err)
}

// WithRecoverable overrides the default recoverability for context-dependent
// kinds (InvalidPath, IndexingError).
func (e *IndexError) WithRecoverable(r bool) *IndexError {
	e.recoverable = r
	return e
}

func (e *IndexError) Error() string {
	if e.Path != "" {
		if e.Underlying != nil {
			return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Underlying)
		}
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Op, e.Path)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *IndexError) Unwrap() error { return e.Underlying }

// Recoverable reports whether the pipeline should continue past this error
// at file granularity rather than counting it toward the critical-error
// abort threshold (spec §7).
func (e *IndexError) Recoverable() bool { return e.recoverable }

// IsCritical is the complement used by the walk-abort counter.
func (e *IndexError) IsCritical() bool { return !e.recoverable }

// MultiError aggregates the per-file errors a run accumulates.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }
