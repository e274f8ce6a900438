package filelock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

// exclusiveAvailable reports whether an exclusive lock on path can be taken
// within a short window. The probe lock is released before returning.
func exclusiveAvailable(t *testing.T, path string) bool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	probe := NewFileLock(path)
	if err := probe.LockContext(ctx); err != nil {
		return false
	}
	if err := probe.Unlock(); err != nil {
		t.Fatalf("probe unlock: %v", err)
	}
	return true
}

func TestLockContextUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".index.lock")
	lock := NewFileLock(lockPath)

	if err := lock.LockContext(context.Background()); err != nil {
		t.Fatalf("LockContext: %v", err)
	}
	if exclusiveAvailable(t, lockPath) {
		t.Error("a second exclusive holder must wait")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !exclusiveAvailable(t, lockPath) {
		t.Error("lock should be free after Unlock")
	}
}

func TestLockContextSerializesMergeCycles(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".index.lock")
	docPath := filepath.Join(dir, "count.txt")
	if err := os.WriteFile(docPath, []byte("0"), 0644); err != nil {
		t.Fatal(err)
	}

	const writers = 5
	const cycles = 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < cycles; i++ {
				lock := NewFileLock(lockPath)
				if err := lock.LockContext(context.Background()); err != nil {
					t.Errorf("LockContext: %v", err)
					return
				}
				// Load, modify, write back, as a merge cycle does.
				data, err := os.ReadFile(docPath)
				if err == nil {
					n, _ := strconv.Atoi(string(data))
					time.Sleep(time.Millisecond)
					err = AtomicWrite(docPath, []byte(strconv.Itoa(n+1)))
				}
				lock.Unlock()
				if err != nil {
					t.Errorf("cycle: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), strconv.Itoa(writers*cycles); got != want {
		t.Errorf("lost updates: counter is %s, want %s", got, want)
	}
}

func TestLockContextWaitsForRelease(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".index.lock")
	holder := NewFileLock(lockPath)
	if err := holder.LockContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	acquired := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		waiter := NewFileLock(lockPath)
		err := waiter.LockContext(ctx)
		if err == nil {
			waiter.Unlock()
		}
		acquired <- err
	}()

	select {
	case err := <-acquired:
		t.Fatalf("waiter returned while lock held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	holder.Unlock()
	if err := <-acquired; err != nil {
		t.Errorf("waiter should acquire after release: %v", err)
	}
}

func TestSharedLocksCoexist(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".index.lock")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	readers := []*FileLock{NewFileLock(lockPath), NewFileLock(lockPath)}
	for i, r := range readers {
		if err := r.RLockContext(ctx); err != nil {
			t.Fatalf("shared lock %d: %v", i, err)
		}
	}
	if exclusiveAvailable(t, lockPath) {
		t.Error("exclusive lock must not be granted while shared locks are held")
	}

	for _, r := range readers {
		r.Unlock()
	}
	if !exclusiveAvailable(t, lockPath) {
		t.Error("exclusive lock should be granted after shared locks are released")
	}
}

func TestRLockContextTimesOutWhileExclusivelyHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".index.lock")

	writer := NewFileLock(lockPath)
	if err := writer.LockContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer writer.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	reader := NewFileLock(lockPath)
	err := reader.RLockContext(ctx)
	if err == nil {
		reader.Unlock()
		t.Fatal("RLockContext should fail while an exclusive lock is held")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestLockContextCancelled(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".index.lock")

	holder := NewFileLock(lockPath)
	if err := holder.LockContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	waiter := NewFileLock(lockPath)
	err := waiter.LockContext(ctx)
	if err == nil {
		waiter.Unlock()
		t.Fatal("LockContext should fail on a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		initial string
	}{
		{"new file", "fileIndex.json", ""},
		{"replace existing", "fileIndex.json", `{"old":{}}`},
		{"missing parent directories", filepath.Join("nested", "index", "extIndex.json"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			target := filepath.Join(dir, tt.target)
			if tt.initial != "" {
				if err := os.WriteFile(target, []byte(tt.initial), 0600); err != nil {
					t.Fatal(err)
				}
			}

			want := `{"/":{}}`
			if err := AtomicWrite(target, []byte(want)); err != nil {
				t.Fatalf("AtomicWrite: %v", err)
			}

			got, err := os.ReadFile(target)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != want {
				t.Errorf("content = %q, want %q", got, want)
			}

			info, err := os.Stat(target)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != 0644 {
				t.Errorf("mode = %v, want 0644", info.Mode().Perm())
			}

			entries, err := os.ReadDir(filepath.Dir(target))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("temp files left behind: %d entries", len(entries))
			}
		})
	}
}

func TestAtomicWriteFuncStreams(t *testing.T) {
	target := filepath.Join(t.TempDir(), "extIndex.json")
	err := AtomicWriteFunc(target, func(w io.Writer) error {
		for i := 0; i < 3; i++ {
			if _, err := fmt.Fprintf(w, "%d", i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("AtomicWriteFunc: %v", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "012" {
		t.Errorf("content = %q", got)
	}
}

func TestAtomicWriteFuncErrorKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "fileIndex.json")
	if err := os.WriteFile(target, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	encodeErr := errors.New("encoder failed")
	err := AtomicWriteFunc(target, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return encodeErr
	})
	if !errors.Is(err, encodeErr) {
		t.Fatalf("expected wrapped encode error, got %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Errorf("original content should survive a failed write, got %q", got)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Errorf("temp file should be removed, found %d entries", len(entries))
	}
}

func TestConcurrentAtomicWritesNeverTear(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fileIndex.json")

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			payload := []byte(fmt.Sprintf("writer-%02d", id))
			if err := AtomicWrite(target, payload); err != nil {
				t.Errorf("writer %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len("writer-00") {
		t.Errorf("torn write: %q", got)
	}
}

func TestStageIsInvisibleUntilCommit(t *testing.T) {
	dir := t.TempDir()
	nameDoc := filepath.Join(dir, "fileIndex.json")
	extDoc := filepath.Join(dir, "extIndex.json")
	for _, p := range []string{nameDoc, extDoc} {
		if err := os.WriteFile(p, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write := func(content string) func(io.Writer) error {
		return func(w io.Writer) error {
			_, err := io.WriteString(w, content)
			return err
		}
	}
	first, err := Stage(nameDoc, write("new-name"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	second, err := Stage(extDoc, write("new-ext"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	for _, p := range []string{nameDoc, extDoc} {
		if got, _ := os.ReadFile(p); string(got) != "old" {
			t.Errorf("%s changed before Commit: %q", filepath.Base(p), got)
		}
	}

	if err := first.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := second.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got, _ := os.ReadFile(nameDoc); string(got) != "new-name" {
		t.Errorf("name document = %q", got)
	}
	if got, _ := os.ReadFile(extDoc); string(got) != "new-ext" {
		t.Errorf("extension document = %q", got)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 2 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
	if err := first.Commit(); err == nil {
		t.Error("second Commit should fail")
	}
}

func TestStageAbortKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "fileIndex.json")
	if err := os.WriteFile(target, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	staged, err := Stage(target, func(w io.Writer) error {
		_, err := io.WriteString(w, "replacement")
		return err
	})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	staged.Abort()
	staged.Abort()

	if got, _ := os.ReadFile(target); string(got) != "original" {
		t.Errorf("content = %q, want original", got)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Errorf("temp file should be removed, found %d entries", len(entries))
	}
	if err := staged.Commit(); err == nil {
		t.Error("Commit after Abort should fail")
	}
}

func TestStageWriteErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	encodeErr := errors.New("encoder failed")
	staged, err := Stage(filepath.Join(dir, "extIndex.json"), func(w io.Writer) error {
		io.WriteString(w, "partial")
		return encodeErr
	})
	if staged != nil || !errors.Is(err, encodeErr) {
		t.Fatalf("Stage = (%v, %v), want wrapped encode error", staged, err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}
