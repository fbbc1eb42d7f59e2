package segio

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/index"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/seginfo"
)

// ReaderPool is a per-clone lazy cache of open segment file handles used for
// positioned reads. Each engine clone owns its own ReaderPool so that one
// goroutine's reads never contend on another's file descriptors, while all
// clones share the same compactionNumber so every one of them knows which
// cached handles have gone stale.
type ReaderPool struct {
	dir    string
	prefix string

	compactionNumber *atomic.Uint64

	mu    sync.Mutex
	files map[uint64]*os.File
}

// NewReaderPool creates the first ReaderPool for a directory, along with the
// shared compactionNumber counter every clone will read from.
func NewReaderPool(dir, prefix string, compactionNumber *atomic.Uint64) *ReaderPool {
	return &ReaderPool{
		dir:              dir,
		prefix:           prefix,
		compactionNumber: compactionNumber,
		files:            make(map[uint64]*os.File),
	}
}

// Clone returns a new ReaderPool with its own empty handle cache, sharing
// this pool's directory, prefix and compactionNumber counter.
func (rp *ReaderPool) Clone() *ReaderPool {
	return NewReaderPool(rp.dir, rp.prefix, rp.compactionNumber)
}

// evictStale closes and forgets every cached handle whose segment number is
// no longer reachable via the index. Called before opening any segment so a
// clone never reads through a handle pointing at a file compaction deleted.
func (rp *ReaderPool) evictStale() {
	cutoff := rp.compactionNumber.Load()
	for seg, f := range rp.files {
		if seg < cutoff {
			_ = f.Close()
			delete(rp.files, seg)
		}
	}
}

func (rp *ReaderPool) handle(segment uint64) (*os.File, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.evictStale()

	if f, ok := rp.files[segment]; ok {
		return f, nil
	}

	path := seginfo.Path(rp.dir, rp.prefix, segment)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to open segment file for read",
		).WithPath(path).WithSegmentID(int(segment))
	}

	rp.files[segment] = f
	return f, nil
}

// ReadSpan locates the segment handle for pos, seeks to its offset, and
// passes fn a reader limited to exactly pos.Length bytes.
func (rp *ReaderPool) ReadSpan(pos index.CommandPosition, fn func(io.Reader) error) error {
	f, err := rp.handle(pos.SegmentNumber)
	if err != nil {
		return err
	}

	section := io.NewSectionReader(f, pos.Offset, pos.Length)
	return fn(section)
}

// CopySpan copies exactly pos.Length bytes starting at pos.Offset in its
// segment to w, used by compaction to move live records into a new segment
// without decoding and re-encoding them.
func (rp *ReaderPool) CopySpan(pos index.CommandPosition, w io.Writer) (int64, error) {
	f, err := rp.handle(pos.SegmentNumber)
	if err != nil {
		return 0, err
	}

	section := io.NewSectionReader(f, pos.Offset, pos.Length)
	n, err := io.Copy(w, section)
	if err != nil {
		return n, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to copy record span during compaction",
		).WithSegmentID(int(pos.SegmentNumber)).WithOffset(int(pos.Offset))
	}
	return n, nil
}

// Close releases every cached file handle owned by this clone.
func (rp *ReaderPool) Close() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	var firstErr error
	for seg, f := range rp.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(rp.files, seg)
	}
	return firstErr
}
