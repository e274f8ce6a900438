package models

import "strings"

// ExtensionMarker prefixes a search term to select extension search.
const ExtensionMarker = '.'

// SearchMode selects which index document a query runs against.
type SearchMode int

const (
	// ByName searches the file-stem document.
	ByName SearchMode = iota
	// ByExtension searches the extension document.
	ByExtension
)

// String returns the string representation of SearchMode.
func (m SearchMode) String() string {
	switch m {
	case ByName:
		return "name"
	case ByExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// SearchQuery is a prefix query confined to a scope directory.
type SearchQuery struct {
	ScopeDirectory string
	Term           string
	Mode           SearchMode
}

// ParseQuery builds a SearchQuery from user input. A term starting with the
// extension marker selects ByExtension and the marker is stripped.
func ParseQuery(scope, term string) SearchQuery {
	q := SearchQuery{ScopeDirectory: scope, Term: term, Mode: ByName}
	if strings.HasPrefix(term, string(ExtensionMarker)) {
		q.Term = term[1:]
		q.Mode = ByExtension
	}
	return q
}
