package segio_test

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/index"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/segio"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/seginfo"
	"github.com/stretchr/testify/require"
)

func TestAppenderTracksPosition(t *testing.T) {
	dir := t.TempDir()
	path := seginfo.Path(dir, "data_", 0)

	a, err := segio.NewAppender(path)
	require.NoError(t, err)

	require.Equal(t, int64(0), a.Position())

	n, err := a.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int64(5), a.Position())

	require.NoError(t, a.Sync())
	require.NoError(t, a.Close())

	reopened, err := segio.NewAppender(path)
	require.NoError(t, err)
	require.Equal(t, int64(5), reopened.Position())
	require.NoError(t, reopened.Close())
}

func TestReaderPoolReadAndCopySpan(t *testing.T) {
	dir := t.TempDir()
	prefix := "data_"

	a, err := segio.NewAppender(seginfo.Path(dir, prefix, 0))
	require.NoError(t, err)
	_, err = a.Write([]byte("abcdefghij"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	compactionNumber := &atomic.Uint64{}
	pool := segio.NewReaderPool(dir, prefix, compactionNumber)

	pos := index.CommandPosition{SegmentNumber: 0, Offset: 3, Length: 4}

	var got string
	require.NoError(t, pool.ReadSpan(pos, func(r io.Reader) error {
		b, err := io.ReadAll(r)
		got = string(b)
		return err
	}))
	require.Equal(t, "defg", got)

	var buf strings.Builder
	n, err := pool.CopySpan(pos, &buf)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, "defg", buf.String())
}

func TestReaderPoolEvictsStaleHandles(t *testing.T) {
	dir := t.TempDir()
	prefix := "data_"

	a, err := segio.NewAppender(seginfo.Path(dir, prefix, 0))
	require.NoError(t, err)
	_, err = a.Write([]byte("xyz"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	compactionNumber := &atomic.Uint64{}
	pool := segio.NewReaderPool(dir, prefix, compactionNumber)

	pos := index.CommandPosition{SegmentNumber: 0, Offset: 0, Length: 3}
	require.NoError(t, pool.ReadSpan(pos, func(r io.Reader) error {
		_, err := io.ReadAll(r)
		return err
	}))

	require.NoError(t, os.Remove(seginfo.Path(dir, prefix, 0)))
	compactionNumber.Store(1)

	// The cached handle for segment 0 is evicted on the next open attempt,
	// so the pool now has to reopen the file from disk and fails since
	// compaction already deleted it.
	err = pool.ReadSpan(pos, func(r io.Reader) error {
		_, err := io.ReadAll(r)
		return err
	})
	require.Error(t, err)
}
