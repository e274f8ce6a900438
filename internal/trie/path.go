package trie

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Segments splits a slash-separated path into directory-segment values, each
// ending with the separator. The first segment keeps a leading separator, so
// "/Users/josbu/readme.txt" yields ["/Users/", "josbu/"] and "C:/Users/" yields
// ["C:/", "Users/"]. Text after the last separator is not a segment.
func Segments(p string) []string {
	var segs []string
	start, from := 0, 1
	for from <= len(p) {
		i := strings.IndexByte(p[from:], Separator)
		if i < 0 {
			break
		}
		end := from + i
		segs = append(segs, p[start:end+1])
		start = end + 1
		from = start
	}
	return segs
}

// NormalizeDir converts dir to forward slashes and ensures a trailing separator.
func NormalizeDir(dir string) string {
	dir = filepath.ToSlash(dir)
	if !strings.HasSuffix(dir, string(Separator)) {
		dir += string(Separator)
	}
	return dir
}

// NormalizeTerm lowercases s and drops every code point that is not a letter or digit.
func NormalizeTerm(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToLower(r))
		}
	}
	return out
}
