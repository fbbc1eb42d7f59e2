package index_test

import (
	"sync"
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/index"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	idx := index.New()

	_, ok := idx.Get("missing")
	require.False(t, ok)

	pos := index.CommandPosition{SegmentNumber: 1, Offset: 0, Length: 10}
	prev, had := idx.Put("a", pos)
	require.False(t, had)
	require.Zero(t, prev)

	got, ok := idx.Get("a")
	require.True(t, ok)
	require.Equal(t, pos, got)

	next := index.CommandPosition{SegmentNumber: 2, Offset: 5, Length: 7}
	prev, had = idx.Put("a", next)
	require.True(t, had)
	require.Equal(t, pos, prev)

	deleted, had := idx.Delete("a")
	require.True(t, had)
	require.Equal(t, next, deleted)

	_, ok = idx.Get("a")
	require.False(t, ok)
}

func TestSnapshotAndReplace(t *testing.T) {
	idx := index.New()
	idx.Put("a", index.CommandPosition{SegmentNumber: 1, Offset: 0, Length: 1})
	idx.Put("b", index.CommandPosition{SegmentNumber: 1, Offset: 1, Length: 1})

	snap := idx.Snapshot()
	want := map[string]index.CommandPosition{
		"a": {SegmentNumber: 1, Offset: 0, Length: 1},
		"b": {SegmentNumber: 1, Offset: 1, Length: 1},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	idx.Replace(map[string]index.CommandPosition{
		"a": {SegmentNumber: 2, Offset: 0, Length: 1},
	})

	require.Equal(t, 1, idx.Len())
	_, ok := idx.Get("b")
	require.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	idx := index.New()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Put(string(rune('a'+i%26)), index.CommandPosition{SegmentNumber: uint64(i), Offset: int64(i), Length: 1})
			idx.Get(string(rune('a' + i%26)))
		}(i)
	}

	wg.Wait()
	require.True(t, idx.Len() > 0)
}
