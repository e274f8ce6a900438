package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/pathtrie/internal/models"
	"github.com/harrison/pathtrie/internal/trie"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	return s
}

func records(paths ...string) []models.FileRecord {
	out := make([]models.FileRecord, 0, len(paths))
	for _, p := range paths {
		out = append(out, models.NewFileRecord(p, false))
	}
	return out
}

func TestMergeAndPersistCreatesDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MergeAndPersist(ctx, records("/Users/josbu/readme.txt")))

	assert.FileExists(t, s.Path(NameIndex))
	assert.FileExists(t, s.Path(ExtensionIndex))

	byName, err := s.Load(ctx, NameIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, byName.CountTerminals())

	byExt, err := s.Load(ctx, ExtensionIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, byExt.CountTerminals())
}

func TestMergeAndPersistAccumulatesBatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MergeAndPersist(ctx, records("/a/one.txt", "/a/two.txt")))
	require.NoError(t, s.MergeAndPersist(ctx, records("/b/three.go", "/a/one.txt")))

	byName, err := s.Load(ctx, NameIndex)
	require.NoError(t, err)
	assert.Equal(t, 4, byName.CountTerminals(), "duplicates across batches are kept")
}

func TestMergeAndPersistEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.MergeAndPersist(context.Background(), nil))
	assert.NoFileExists(t, s.Path(NameIndex))
}

func TestMergeAndPersistCorruptDocument(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	corrupt := []byte(`{"a/":{"b":`)
	require.NoError(t, os.WriteFile(s.Path(NameIndex), corrupt, 0644))

	err := s.MergeAndPersist(context.Background(), records("/x/y.txt"))
	require.Error(t, err)

	var parseErr *IndexParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, NameIndex, parseErr.Kind)
	assert.Equal(t, s.Path(NameIndex)+".corrupt-20260102-030405", parseErr.QuarantinePath)

	saved, err := os.ReadFile(parseErr.QuarantinePath)
	require.NoError(t, err)
	assert.Equal(t, corrupt, saved)

	original, err := os.ReadFile(s.Path(NameIndex))
	require.NoError(t, err)
	assert.Equal(t, corrupt, original, "corrupt document must not be overwritten")
	assert.NoFileExists(t, s.Path(ExtensionIndex))
}

func TestMergeAndPersistRejectsNonUTF8Names(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.MergeAndPersist(ctx, records("/d/ra.txt")))

	nameBefore, err := os.ReadFile(s.Path(NameIndex))
	require.NoError(t, err)
	extBefore, err := os.ReadFile(s.Path(ExtensionIndex))
	require.NoError(t, err)

	err = s.MergeAndPersist(ctx, records("/d/r\xffa.txt", "/d/\xfex/r\xfeb.txt", "/d/\xfdx/rc.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, trie.ErrInvalidName)
	var writeErr *IndexWriteError
	require.ErrorAs(t, err, &writeErr)

	nameAfter, err := os.ReadFile(s.Path(NameIndex))
	require.NoError(t, err)
	extAfter, err := os.ReadFile(s.Path(ExtensionIndex))
	require.NoError(t, err)
	assert.Equal(t, nameBefore, nameAfter)
	assert.Equal(t, extBefore, extAfter)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "staged files must be discarded")
	}

	byName, err := s.Load(ctx, NameIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, byName.CountTerminals())
}

func TestResetWritesBothDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Reset(ctx))

	for _, kind := range []Kind{NameIndex, ExtensionIndex} {
		data, err := os.ReadFile(s.Path(kind))
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))
	}
}

func TestLoadUnreadableDocument(t *testing.T) {
	s := newTestStore(t)
	// A directory where the document should be makes the read itself fail.
	require.NoError(t, os.Mkdir(s.Path(NameIndex), 0755))

	_, err := s.Load(context.Background(), NameIndex)
	var writeErr *IndexWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "read", writeErr.Op)
	assert.Contains(t, err.Error(), "read name index")

	err = s.MergeAndPersist(context.Background(), records("/a/b.txt"))
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "read", writeErr.Op)
}

func TestIndexWriteErrorDefaultsToWrite(t *testing.T) {
	err := &IndexWriteError{Kind: ExtensionIndex, Path: "/idx/extIndex.json", Err: errors.New("disk full")}
	assert.Equal(t, "write extension index /idx/extIndex.json: disk full", err.Error())
}

func TestLoadMissingDocument(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), NameIndex)
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestLoadEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(ExtensionIndex), []byte("  \n"), 0644))

	doc, err := s.Load(context.Background(), ExtensionIndex)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
}

func TestLoadCorruptDocumentIsNotQuarantined(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(NameIndex), []byte(`nope`), 0644))

	_, err := s.Load(context.Background(), NameIndex)
	var parseErr *IndexParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Empty(t, parseErr.QuarantinePath)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.MergeAndPersist(ctx, records("/a/b.txt")))

	require.NoError(t, s.Reset(ctx))

	for _, kind := range []Kind{NameIndex, ExtensionIndex} {
		doc, err := s.Load(ctx, kind)
		require.NoError(t, err)
		assert.Equal(t, 0, doc.CountTerminals())
	}
}

func TestConcurrentMergesAreSerialized(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	// Two stores on one directory stand in for two processes
	s1, err := New(dir)
	require.NoError(t, err)
	s2, err := New(dir)
	require.NoError(t, err)

	const goroutines = 8
	const perGoroutine = 5

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s := s1
			if id%2 == 1 {
				s = s2
			}
			for j := 0; j < perGoroutine; j++ {
				path := fmt.Sprintf("/w%d/file%d.txt", id, j)
				if err := s.MergeAndPersist(context.Background(), records(path)); err != nil {
					t.Errorf("MergeAndPersist failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	byName, err := s1.Load(context.Background(), NameIndex)
	require.NoError(t, err)
	assert.Equal(t, goroutines*perGoroutine, byName.CountTerminals(), "no merge cycle may be lost")
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, NameIndex, KindFor(models.ByName))
	assert.Equal(t, ExtensionIndex, KindFor(models.ByExtension))
	assert.Equal(t, "extension", ExtensionIndex.String())
}
