// Package search answers prefix queries against a persisted index document.
//
// A query first resolves its scope directory through directory-segment edges,
// then scans the subtree breadth first. Directory edges are always followed;
// character edges are followed only while the characters consumed since the
// last directory boundary agree with the term over their common length. A
// terminal is reported once at least as many characters as the term holds
// have been consumed, so every reported name's normalized stem starts with
// the normalized term.
package search

import (
	"context"
	"fmt"
	"os"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/harrison/pathtrie/internal/models"
	"github.com/harrison/pathtrie/internal/store"
	"github.com/harrison/pathtrie/internal/trie"
)

// Loader provides index documents. *store.Store implements it.
type Loader interface {
	Load(ctx context.Context, kind store.Kind) (*trie.Node, error)
	Stat(kind store.Kind) (os.FileInfo, error)
}

// Options configures an Engine.
type Options struct {
	// CacheSize is the number of decoded documents kept between queries.
	// Zero disables caching.
	//
	// A cached document is reused while the file keeps the same size and
	// modification time. A rewrite of identical size that lands within the
	// filesystem's timestamp resolution is not noticed, and the older
	// document is served until the file changes again. Long-lived engines
	// that must see every merge should use zero.
	CacheSize int
}

// cacheKey identifies one on-disk version of a document.
type cacheKey struct {
	kind    store.Kind
	size    int64
	modTime int64 // UnixNano
}

// Engine runs queries. It never mutates a document and is safe for
// concurrent use.
type Engine struct {
	loader Loader
	cache  *lru.Cache[cacheKey, *trie.Node]
}

// NewEngine creates an Engine reading documents from loader.
func NewEngine(loader Loader, opts Options) (*Engine, error) {
	e := &Engine{loader: loader}
	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, *trie.Node](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create document cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Search returns the absolute paths matching q in breadth-first discovery
// order. Results are neither sorted nor deduplicated.
func (e *Engine) Search(ctx context.Context, q models.SearchQuery) ([]string, error) {
	doc, err := e.document(ctx, store.KindFor(q.Mode))
	if err != nil {
		return nil, err
	}
	return Scan(doc, q.ScopeDirectory, q.Term)
}

func (e *Engine) document(ctx context.Context, kind store.Kind) (*trie.Node, error) {
	var key cacheKey
	if e.cache != nil {
		info, err := e.loader.Stat(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %s index: %w", ErrSearchUnavailable, kind, err)
		}
		key = cacheKey{kind: kind, size: info.Size(), modTime: info.ModTime().UnixNano()}
		if doc, ok := e.cache.Get(key); ok {
			return doc, nil
		}
	}

	doc, err := e.loader.Load(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s index: %w", ErrSearchUnavailable, kind, err)
	}
	if e.cache != nil {
		e.cache.Add(key, doc)
	}
	return doc, nil
}

// item is one pending node in the breadth-first scan.
type item struct {
	node  *trie.Node
	dir   string // Path up to and including the last directory boundary
	chars []rune // Characters consumed since dir
}

// Scan runs a query over an already loaded document.
func Scan(doc *trie.Node, scope, term string) ([]string, error) {
	dir := trie.NormalizeDir(scope)
	segs := trie.Segments(dir)
	if len(segs) == 0 {
		// The filesystem root: top-level segments already carry the leading separator.
		dir = ""
	}
	node := doc
	for _, seg := range segs {
		child, ok := node.Child(trie.Segment(seg))
		if !ok {
			return nil, &DirectoryNotIndexedError{Scope: dir, Segment: seg}
		}
		node = child
	}

	want := trie.NormalizeTerm(term)
	results := []string{}
	queue := []item{{node: node, dir: dir}}
	for len(queue) > 0 {
		cur := queue[0]
		queue[0] = item{}
		queue = queue[1:]

		if cur.node.HasTerminal() && len(cur.chars) >= len(want) {
			for _, name := range cur.node.Terminal() {
				results = append(results, cur.dir+name)
			}
		}

		for _, l := range cur.node.Labels() {
			child, _ := cur.node.Child(l)
			if l.IsSegment() {
				queue = append(queue, item{node: child, dir: cur.dir + l.Value})
				continue
			}
			chars := make([]rune, len(cur.chars)+1)
			copy(chars, cur.chars)
			chars[len(cur.chars)] = l.Rune()
			if prefixAgrees(chars, want) {
				queue = append(queue, item{node: child, dir: cur.dir, chars: chars})
			}
		}
	}
	return results, nil
}

// prefixAgrees compares a and b over the shorter of their lengths. b is
// already lowercased.
func prefixAgrees(a, b []rune) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if unicode.ToLower(a[i]) != b[i] {
			return false
		}
	}
	return true
}
