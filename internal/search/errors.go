package search

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryNotIndexed matches any *DirectoryNotIndexedError.
	ErrDirectoryNotIndexed = errors.New("directory not indexed")

	// ErrSearchUnavailable is returned when the index document is missing or unreadable.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// DirectoryNotIndexedError reports a scope whose directory chain is absent
// from the index.
type DirectoryNotIndexedError struct {
	Scope   string // Normalized scope directory
	Segment string // First segment with no matching edge
}

// Error implements the error interface for DirectoryNotIndexedError.
func (e *DirectoryNotIndexedError) Error() string {
	return fmt.Sprintf("directory not indexed: %s (no entry for segment %q)", e.Scope, e.Segment)
}

// Is lets errors.Is match ErrDirectoryNotIndexed.
func (e *DirectoryNotIndexedError) Is(target error) bool {
	return target == ErrDirectoryNotIndexed
}
