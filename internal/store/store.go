// Package store persists the by-name and by-extension trie documents.
//
// Every merge cycle loads both documents, applies a batch of records and
// writes both back. Cycles are single-writer: an in-process mutex serializes
// goroutines and an exclusive file lock serializes processes. Documents are
// replaced by atomic rename, and readers take a shared file lock, so a search
// always decodes a complete document.
//
// Both documents are fully written to temporary files before either is
// renamed into place, so an encode or disk error leaves the pair untouched.
// The two renames are still separate syscalls: a crash between them leaves
// the name document one batch ahead of the extension document. Running the
// indexer with --fresh rebuilds both.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrison/pathtrie/internal/filelock"
	"github.com/harrison/pathtrie/internal/models"
	"github.com/harrison/pathtrie/internal/trie"
)

// Document file names inside the index directory.
const (
	NameIndexFile      = "fileIndex.json"
	ExtensionIndexFile = "extIndex.json"
	lockFileName       = ".index.lock"
)

// Kind selects one of the two documents.
type Kind int

const (
	// NameIndex is keyed by file stem.
	NameIndex Kind = iota
	// ExtensionIndex is keyed by file extension.
	ExtensionIndex
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case NameIndex:
		return "name"
	case ExtensionIndex:
		return "extension"
	default:
		return "unknown"
	}
}

// KindFor maps a search mode onto the document it reads.
func KindFor(mode models.SearchMode) Kind {
	if mode == models.ByExtension {
		return ExtensionIndex
	}
	return NameIndex
}

// Store owns the index directory.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the index directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the document location for kind.
func (s *Store) Path(kind Kind) string {
	if kind == ExtensionIndex {
		return filepath.Join(s.dir, ExtensionIndexFile)
	}
	return filepath.Join(s.dir, NameIndexFile)
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, lockFileName)
}

// MergeAndPersist loads both documents, inserts batch in order and writes
// both back. A corrupt document aborts the cycle with *IndexParseError after a
// copy of it is saved beside the original; nothing is overwritten.
func (s *Store) MergeAndPersist(ctx context.Context, batch []models.FileRecord) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock := filelock.NewFileLock(s.lockPath())
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	byName, err := s.readDocument(NameIndex, true)
	if err != nil {
		return err
	}
	byExt, err := s.readDocument(ExtensionIndex, true)
	if err != nil {
		return err
	}

	trie.InsertBatch(batch, byName, byExt)

	return s.writeDocuments(byName, byExt)
}

// Load decodes one document under a shared lock. A document that was never
// written yields ErrIndexNotFound; an empty file yields an empty document.
func (s *Store) Load(ctx context.Context, kind Kind) (*trie.Node, error) {
	if _, err := os.Stat(s.Path(kind)); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.Path(kind))
	}

	lock := filelock.NewFileLock(s.lockPath())
	if err := lock.RLockContext(ctx); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	return s.readDocument(kind, false)
}

// Stat returns file info for a document, used to detect changes between loads.
func (s *Store) Stat(kind Kind) (os.FileInfo, error) {
	return os.Stat(s.Path(kind))
}

// Reset replaces both documents with empty ones.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := filelock.NewFileLock(s.lockPath())
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	return s.writeDocuments(trie.NewNode(), trie.NewNode())
}

// readDocument must be called with the file lock held.
func (s *Store) readDocument(kind Kind, quarantine bool) (*trie.Node, error) {
	path := s.Path(kind)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return trie.NewNode(), nil
	}
	if err != nil {
		return nil, &IndexWriteError{Op: "read", Kind: kind, Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return trie.NewNode(), nil
	}

	doc, err := trie.Decode(bytes.NewReader(data))
	if err != nil {
		parseErr := &IndexParseError{Kind: kind, Path: path, Err: err}
		if quarantine {
			parseErr.QuarantinePath = s.quarantine(path, data)
		}
		return nil, parseErr
	}
	return doc, nil
}

// quarantine saves a copy of a corrupt document and returns its path, or "" on failure.
func (s *Store) quarantine(path string, data []byte) string {
	target := fmt.Sprintf("%s.corrupt-%s", path, s.now().Format("20060102-150405"))
	if err := filelock.AtomicWrite(target, data); err != nil {
		return ""
	}
	return target
}

// writeDocuments stages both documents and commits them only when both
// encoded cleanly.
func (s *Store) writeDocuments(byName, byExt *trie.Node) error {
	nameStaged, err := s.stageDocument(NameIndex, byName)
	if err != nil {
		return err
	}
	extStaged, err := s.stageDocument(ExtensionIndex, byExt)
	if err != nil {
		nameStaged.Abort()
		return err
	}

	if err := nameStaged.Commit(); err != nil {
		extStaged.Abort()
		return &IndexWriteError{Kind: NameIndex, Path: s.Path(NameIndex), Err: err}
	}
	if err := extStaged.Commit(); err != nil {
		return &IndexWriteError{Kind: ExtensionIndex, Path: s.Path(ExtensionIndex), Err: err}
	}
	return nil
}

func (s *Store) stageDocument(kind Kind, doc *trie.Node) (*filelock.StagedFile, error) {
	path := s.Path(kind)
	staged, err := filelock.Stage(path, func(w io.Writer) error {
		return trie.Encode(w, doc)
	})
	if err != nil {
		return nil, &IndexWriteError{Kind: kind, Path: path, Err: err}
	}
	return staged, nil
}
