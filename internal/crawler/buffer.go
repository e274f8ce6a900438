package crawler

import (
	"sync"

	"github.com/harrison/pathtrie/internal/models"
)

// maxPrealloc caps the initial capacity of a batch.
const maxPrealloc = 4096

// buffer is the shared entry buffer. Its lock is held only for an append or a
// swap, never across a flush.
type buffer struct {
	mu    sync.Mutex
	items []models.FileRecord
	limit int
}

func newBuffer(limit int) *buffer {
	return &buffer{items: make([]models.FileRecord, 0, min(limit, maxPrealloc)), limit: limit}
}

// add appends rec. When the buffer reaches its limit the full batch is
// returned and the buffer starts over; the caller owns the batch.
func (b *buffer) add(rec models.FileRecord) []models.FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, rec)
	if len(b.items) < b.limit {
		return nil
	}
	batch := b.items
	b.items = make([]models.FileRecord, 0, min(b.limit, maxPrealloc))
	return batch
}

// drain returns whatever is buffered and empties the buffer.
func (b *buffer) drain() []models.FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.items
	b.items = nil
	return batch
}
