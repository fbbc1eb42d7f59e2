package index

import (
	"sync"
)

// CommandPosition locates the exact byte span of a surviving Set record: the
// segment it lives in, the offset the record starts at, and its length in
// bytes. It is the unit of value the index maps every live key to.
type CommandPosition struct {
	SegmentNumber uint64
	Offset        int64
	Length        int64
}

// Index is the in-memory hash table mapping keys to their on-disk location.
// Reads and writes are protected by a single RWMutex rather than sharding,
// since lookups are O(1) map accesses and the held critical section is tiny;
// this keeps Get's "no writer-mutex contention" requirement intact while
// still allowing many concurrent readers.
type Index struct {
	mu      sync.RWMutex
	entries map[string]CommandPosition
}
