package logs

import (
	"sync"

	"github.com/zefiro/zefiro-job/models"
)

// DefaultMaxEntries Number of log entries kept per workload unless configured otherwise
const DefaultMaxEntries = 10000

// Buffer Bounded log of a workload. When full the oldest entry is dropped
type Buffer struct {
	mu      sync.Mutex
	entries []models.LogEntry
	start   int
	count   int
	dropped int
}

// NewBuffer Constructor. A non-positive max uses DefaultMaxEntries
func NewBuffer(maxEntries int) *Buffer {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Buffer{entries: make([]models.LogEntry, maxEntries)}
}

// Append Adds an entry after all previous ones
func (b *Buffer) Append(entry models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count < len(b.entries) {
		b.entries[(b.start+b.count)%len(b.entries)] = entry
		b.count++
		return
	}
	b.entries[b.start] = entry
	b.start = (b.start + 1) % len(b.entries)
	b.dropped++
}

// Entries Copy of the kept entries in arrival order
func (b *Buffer) Entries() []models.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]models.LogEntry, 0, b.count)
	for i := 0; i < b.count; i++ {
		result = append(result, b.entries[(b.start+i)%len(b.entries)])
	}
	return result
}

// Dropped Number of entries discarded because the buffer was full
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
