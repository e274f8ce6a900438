package trie

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Separator terminates every directory-segment label.
const Separator = '/'

// EdgeKind discriminates the two label kinds.
type EdgeKind uint8

const (
	// DirectorySegment labels one path component, e.g. "josbu/".
	DirectorySegment EdgeKind = iota + 1
	// Character labels one normalized code point of a stem or extension.
	Character
)

// String returns the string representation of EdgeKind.
func (k EdgeKind) String() string {
	switch k {
	case DirectorySegment:
		return "segment"
	case Character:
		return "character"
	default:
		return "unknown"
	}
}

// Label is an edge label. Labels are comparable and usable as map keys.
type Label struct {
	Kind  EdgeKind
	Value string
}

// Segment returns a directory-segment label. A missing trailing separator is added.
func Segment(s string) Label {
	if !strings.HasSuffix(s, string(Separator)) {
		s += string(Separator)
	}
	return Label{Kind: DirectorySegment, Value: s}
}

// Char returns a character label for r.
func Char(r rune) Label {
	return Label{Kind: Character, Value: string(r)}
}

// IsSegment reports whether l is a directory-segment label.
func (l Label) IsSegment() bool {
	return l.Kind == DirectorySegment
}

// Rune returns the code point of a character label, or utf8.RuneError for segments.
func (l Label) Rune() rune {
	if l.Kind != Character {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.Value)
	return r
}

// String returns the wire key of the label.
func (l Label) String() string {
	return l.Value
}

// parseLabel classifies a wire key.
func parseLabel(key string) (Label, error) {
	if strings.HasSuffix(key, string(Separator)) {
		return Label{Kind: DirectorySegment, Value: key}, nil
	}
	if utf8.RuneCountInString(key) == 1 {
		return Label{Kind: Character, Value: key}, nil
	}
	return Label{}, fmt.Errorf("invalid edge label %q", key)
}
