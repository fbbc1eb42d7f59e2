package compaction_test

import (
	"io"
	"os"
	"sync/atomic"
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/compaction"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/index"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/record"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/segio"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/seginfo"
	"github.com/stretchr/testify/require"
)

func TestRunRewritesLiveKeysAndDeletesObsoleteSegments(t *testing.T) {
	dir := t.TempDir()
	prefix := "data_"

	appender, err := segio.NewAppender(seginfo.Path(dir, prefix, 0))
	require.NoError(t, err)

	idx := index.New()

	writeSet := func(key, value string) {
		payload, err := record.NewSet(key, value).Marshal()
		require.NoError(t, err)
		offset := appender.Position()
		_, err = appender.Write(payload)
		require.NoError(t, err)
		require.NoError(t, appender.Flush())
		idx.Put(key, index.CommandPosition{SegmentNumber: 0, Offset: offset, Length: appender.Position() - offset})
	}

	writeSet("a", "1")
	writeSet("b", "2")
	writeSet("a", "3")
	require.NoError(t, appender.Close())

	compactionNumber := &atomic.Uint64{}
	reader := segio.NewReaderPool(dir, prefix, compactionNumber)

	c := compaction.New(dir, prefix, nil)
	result, err := c.Run(idx, reader, compactionNumber, 0)
	require.NoError(t, err)
	require.NoError(t, result.Appender.Close())

	_, err = os.Stat(seginfo.Path(dir, prefix, 0))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, result.CurrentSegment, compactionNumber.Load()+1)

	pos, ok := idx.Get("a")
	require.True(t, ok)
	require.Equal(t, compactionNumber.Load(), pos.SegmentNumber)

	freshReader := segio.NewReaderPool(dir, prefix, compactionNumber)

	read := func(pos index.CommandPosition) record.Record {
		var got record.Record
		require.NoError(t, freshReader.ReadSpan(pos, func(r io.Reader) error {
			dec := record.NewDecoder(r)
			rec, _, _, err := dec.Next()
			got = rec
			return err
		}))
		return got
	}

	require.Equal(t, "3", read(pos).Value)

	posB, ok := idx.Get("b")
	require.True(t, ok)
	require.Equal(t, "2", read(posB).Value)
}
