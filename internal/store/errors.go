package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIndexNotFound is returned by Load when a document has never been written.
var ErrIndexNotFound = errors.New("index document not found")

// IndexParseError reports a document that exists but cannot be decoded.
// The store's integrity cannot be trusted afterwards, so callers treat it as fatal.
type IndexParseError struct {
	Kind           Kind   // Which document failed
	Path           string // Document location
	QuarantinePath string // Copy of the corrupt document, empty if none was made
	Err            error  // Underlying decode error
}

// Error implements the error interface for IndexParseError.
func (e *IndexParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("parse %s index %s", e.Kind, e.Path))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	if e.QuarantinePath != "" {
		sb.WriteString(fmt.Sprintf(" (corrupt copy saved to %s)", e.QuarantinePath))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *IndexParseError) Unwrap() error {
	return e.Err
}

// IndexWriteError reports a failure to read or persist a document.
type IndexWriteError struct {
	Op   string // "read" or "write"; empty means "write"
	Kind Kind
	Path string
	Err  error
}

// Error implements the error interface for IndexWriteError.
func (e *IndexWriteError) Error() string {
	op := e.Op
	if op == "" {
		op = "write"
	}
	return fmt.Sprintf("%s %s index %s: %v", op, e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *IndexWriteError) Unwrap() error {
	return e.Err
}
