package trie

import (
	"path/filepath"
	"strings"

	"github.com/harrison/pathtrie/internal/models"
)

// Insert adds rec to both documents. The parent directory chain is created in
// each document; the stem is spelled into byName and, for files with an
// extension, the extension (without its dot) into byExt. The original base
// name is appended to the terminal marker of the last character node.
// Inserting the same path twice records it twice.
func Insert(rec models.FileRecord, byName, byExt *Node) {
	p := filepath.ToSlash(rec.AbsolutePath)
	segs := Segments(p)
	name := p[strings.LastIndexByte(p, Separator)+1:]

	nameDir := byName.WalkSegments(segs)
	extDir := byExt.WalkSegments(segs)
	if name == "" {
		return
	}

	stem, _ := models.SplitName(name)
	insertChars(nameDir, stem, name)

	if !rec.IsDirectory && rec.Extension != "" {
		insertChars(extDir, strings.TrimPrefix(rec.Extension, "."), name)
	}
}

// InsertBatch applies Insert for every record in order.
func InsertBatch(batch []models.FileRecord, byName, byExt *Node) {
	for _, rec := range batch {
		Insert(rec, byName, byExt)
	}
}

func insertChars(n *Node, key, name string) {
	chars := NormalizeTerm(key)
	if len(chars) == 0 {
		return
	}
	cur := n
	for _, r := range chars {
		cur = cur.Ensure(Char(r))
	}
	cur.AppendTerminal(name)
}
