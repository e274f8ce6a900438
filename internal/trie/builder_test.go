package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/pathtrie/internal/models"
)

// walk follows labels from n and fails the test if any edge is missing.
func walk(t *testing.T, n *Node, labels ...Label) *Node {
	t.Helper()
	cur := n
	for _, l := range labels {
		next, ok := cur.Child(l)
		require.Truef(t, ok, "missing edge %s %q", l.Kind, l.Value)
		cur = next
	}
	return cur
}

func chars(s string) []Label {
	var out []Label
	for _, r := range s {
		out = append(out, Char(r))
	}
	return out
}

func TestInsertFile(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/Users/josbu/ReadMe.txt", false), byName, byExt)

	dir := walk(t, byName, Segment("/Users/"), Segment("josbu/"))
	leaf := walk(t, dir, chars("readme")...)
	assert.True(t, leaf.HasTerminal())
	assert.Equal(t, []string{"ReadMe.txt"}, leaf.Terminal())

	extDir := walk(t, byExt, Segment("/Users/"), Segment("josbu/"))
	extLeaf := walk(t, extDir, chars("txt")...)
	assert.Equal(t, []string{"ReadMe.txt"}, extLeaf.Terminal())
}

func TestInsertSegmentsPrecedeCharacters(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/a/b/file.go", false), byName, byExt)

	var check func(n *Node, seenChar bool)
	check = func(n *Node, seenChar bool) {
		for _, l := range n.Labels() {
			child, _ := n.Child(l)
			if l.IsSegment() {
				assert.False(t, seenChar, "segment %q below a character edge", l.Value)
				check(child, seenChar)
				continue
			}
			check(child, true)
		}
	}
	check(byName, false)
	check(byExt, false)
}

func TestInsertDirectoryHasNoExtensionBranch(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/srv/conf.d", true), byName, byExt)

	dir := walk(t, byName, Segment("/srv/"))
	leaf := walk(t, dir, chars("conf")...)
	assert.Equal(t, []string{"conf.d"}, leaf.Terminal())

	extDir := walk(t, byExt, Segment("/srv/"))
	assert.Equal(t, 0, extDir.Len(), "directories must not produce extension edges")
}

func TestInsertDropsPunctuation(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/d/a.b.txt", false), byName, byExt)
	Insert(models.NewFileRecord("/d/a-b.txt", false), byName, byExt)

	dir := walk(t, byName, Segment("/d/"))
	leaf := walk(t, dir, chars("ab")...)
	assert.Equal(t, []string{"a.b.txt", "a-b.txt"}, leaf.Terminal())
}

func TestInsertEmptyStemAndExtension(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/d/___.~~~", false), byName, byExt)

	dir := walk(t, byName, Segment("/d/"))
	assert.Equal(t, 0, dir.Len())
	assert.False(t, dir.HasTerminal())

	extDir := walk(t, byExt, Segment("/d/"))
	assert.Equal(t, 0, extDir.Len())
}

func TestInsertDotfile(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/home/u/.bashrc", false), byName, byExt)

	dir := walk(t, byName, Segment("/home/"), Segment("u/"))
	leaf := walk(t, dir, chars("bashrc")...)
	assert.Equal(t, []string{".bashrc"}, leaf.Terminal())

	extDir := walk(t, byExt, Segment("/home/"), Segment("u/"))
	assert.Equal(t, 0, extDir.Len())
}

func TestInsertDuplicatesAreKept(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	rec := models.NewFileRecord("/x/log.txt", false)
	InsertBatch([]models.FileRecord{rec, rec}, byName, byExt)

	leaf := walk(t, byName, append([]Label{Segment("/x/")}, chars("log")...)...)
	assert.Equal(t, []string{"log.txt", "log.txt"}, leaf.Terminal())
	assert.Equal(t, 2, byExt.CountTerminals())
}

func TestInsertRootEntry(t *testing.T) {
	byName, byExt := NewNode(), NewNode()
	Insert(models.NewFileRecord("/", true), byName, byExt)
	assert.Equal(t, 0, byName.Len())
	assert.Equal(t, 0, byExt.Len())

	Insert(models.NewFileRecord("/Users", true), byName, byExt)
	leaf := walk(t, byName, chars("users")...)
	assert.Equal(t, []string{"Users"}, leaf.Terminal())
}
