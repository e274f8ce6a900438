// Package trie models the persisted path tries used by the index.
//
// A document is a tree of Nodes rooted at the filesystem root. Edges carry a
// typed Label: directory-segment labels spell the directory chain of an entry
// in original casing, and character labels spell the normalized (lowercased,
// alphanumeric) stem or extension of the entry below its parent directory.
// Along any root-to-node path every segment edge precedes every character edge.
//
// Names that complete at a node live in the node's terminal marker, a slot
// separate from the edges. On the wire the marker is written under the "END"
// key, which cannot collide with a segment (always ends in "/") or a character
// (always exactly one code point).
//
// Insert maps a models.FileRecord onto a by-name and a by-extension document.
// It performs no I/O; persistence belongs to the store package.
package trie
