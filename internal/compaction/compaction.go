// Package compaction implements the online copy-then-publish rewrite that
// bounds log growth: live records are copied forward into a fresh segment,
// the index is atomically repointed at the copies, and every segment left
// behind is deleted. Readers never observe a half-compacted state because
// the index swap and the compactionNumber publish both happen only after
// every live record has a home in the new segment.
package compaction

import (
	"os"
	"sync/atomic"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/index"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/segio"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/seginfo"
	"go.uber.org/zap"
)

// Compaction runs the rewrite algorithm against a directory of numbered
// segment files. It holds no mutable state of its own; every value it needs
// is threaded through Run by the caller, which is expected to be holding the
// engine's writer lock for the whole call.
type Compaction struct {
	dir    string
	prefix string
	log    *zap.SugaredLogger
}

// New builds a Compaction bound to dir/prefix.
func New(dir, prefix string, log *zap.SugaredLogger) *Compaction {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Compaction{dir: dir, prefix: prefix, log: log}
}

// Result reports the new current segment the engine should resume writing
// to, and the live appender already open on it.
type Result struct {
	CurrentSegment uint64
	Appender       *segio.PositionedAppender
}

// Run rewrites every live key into a new segment, publishes the swap, and
// deletes every segment left behind. idx and reader belong to the caller's
// clone; compactionNumber is the value shared across every clone. current is
// the segment number the caller was writing to before calling Run.
func (c *Compaction) Run(
	idx *index.Index,
	reader *segio.ReaderPool,
	compactionNumber *atomic.Uint64,
	current uint64,
) (*Result, error) {
	target := current + 1

	targetAppender, err := segio.NewAppender(seginfo.Path(c.dir, c.prefix, target))
	if err != nil {
		return nil, err
	}

	snapshot := idx.Snapshot()
	rewritten := make(map[string]index.CommandPosition, len(snapshot))

	for key, pos := range snapshot {
		offset := targetAppender.Position()

		n, err := reader.CopySpan(pos, targetAppender)
		if err != nil {
			_ = targetAppender.Close()
			return nil, err
		}

		rewritten[key] = index.CommandPosition{
			SegmentNumber: target,
			Offset:        offset,
			Length:        n,
		}
	}

	if err := targetAppender.Sync(); err != nil {
		_ = targetAppender.Close()
		return nil, err
	}

	// Publish: compactionNumber first, then the index, so a concurrent
	// reader that observes the new index entries will already evict any
	// stale cached handle before the file underneath it disappears.
	compactionNumber.Store(target)
	idx.Replace(rewritten)

	if err := targetAppender.Close(); err != nil {
		return nil, err
	}

	if err := c.deleteObsolete(target); err != nil {
		c.log.Errorw("compaction finished rewrite but obsolete segment cleanup failed", "error", err)
	}

	newCurrent := target + 1
	newAppender, err := segio.NewAppender(seginfo.Path(c.dir, c.prefix, newCurrent))
	if err != nil {
		return nil, err
	}

	c.log.Infow("compaction complete", "frozenSegment", target, "newCurrentSegment", newCurrent, "keysRewritten", len(rewritten))

	return &Result{CurrentSegment: newCurrent, Appender: newAppender}, nil
}

// deleteObsolete removes every segment file numbered below cutoff.
func (c *Compaction) deleteObsolete(cutoff uint64) error {
	ids, err := seginfo.ListSegmentIDs(c.dir, c.prefix)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list segments for cleanup").WithPath(c.dir)
	}

	for _, id := range ids {
		if id >= cutoff {
			continue
		}
		path := seginfo.Path(c.dir, c.prefix, id)
		if err := os.Remove(path); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to delete obsolete segment").WithPath(path)
		}
	}

	return nil
}
