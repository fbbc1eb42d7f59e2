package engine_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/engine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, dir string, threshold uint64) *engine.Engine {
	t.Helper()
	e, err := engine.Open(&engine.Config{
		Options: options.New(
			options.WithDataDir(dir),
			options.WithCompactionThreshold(threshold),
		),
	})
	require.NoError(t, err)
	return e
}

func TestSetGetRemove(t *testing.T) {
	e := open(t, t.TempDir(), options.DefaultCompactionThreshold)
	defer e.Close()

	require.NoError(t, e.Set("a", "1"))

	value, ok, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)

	require.NoError(t, e.Remove("a"))

	_, ok, err = e.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	err = e.Remove("a")
	require.Error(t, err)
}

func TestReopenRecovery(t *testing.T) {
	dir := t.TempDir()
	e := open(t, dir, options.DefaultCompactionThreshold)

	for i := 0; i < 1000; i++ {
		require.NoError(t, e.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("val%d", i)))
	}
	require.NoError(t, e.Close())

	reopened := open(t, dir, options.DefaultCompactionThreshold)
	defer reopened.Close()

	for i := 0; i < 1000; i++ {
		value, ok, err := reopened.Get(fmt.Sprintf("key%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("val%d", i), value)
	}
}

func TestCompactionBoundsSegmentCountAndPreservesContent(t *testing.T) {
	dir := t.TempDir()
	e := open(t, dir, 1024)
	defer e.Close()

	for i := 0; i < 10000; i++ {
		require.NoError(t, e.Set("k", fmt.Sprintf("value-%d", i)))
	}

	value, ok, err := e.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value-9999", value)

	segments, err := filepath.Glob(filepath.Join(dir, "kvs", "data_*.txt"))
	require.NoError(t, err)
	require.Less(t, len(segments), 20)
}

func TestOpenRejectsSecondProcessOnSameDir(t *testing.T) {
	dir := t.TempDir()
	e := open(t, dir, options.DefaultCompactionThreshold)
	defer e.Close()

	_, err := engine.Open(&engine.Config{Options: options.New(options.WithDataDir(dir))})
	require.Error(t, err)
}

func TestConcurrentClonesDoNotRace(t *testing.T) {
	e := open(t, t.TempDir(), options.DefaultCompactionThreshold)
	defer e.Close()

	require.NoError(t, e.Set("shared", "initial"))

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			clone := e.Clone()
			_, _, _ = clone.Get("shared")
		}(i)
	}

	for i := 0; i < 8; i++ {
		<-done
	}
}
