package threadpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/threadpool"
	"github.com/stretchr/testify/require"
)

func newPools(t *testing.T, n uint) []threadpool.ThreadPool {
	t.Helper()

	naive, err := threadpool.NewNaiveThreadPool(n)
	require.NoError(t, err)

	shared, err := threadpool.NewSharedQueueThreadPool(n, nil)
	require.NoError(t, err)

	delegating, err := threadpool.NewDelegatingThreadPool(n)
	require.NoError(t, err)

	return []threadpool.ThreadPool{naive, shared, delegating}
}

func TestThreadPoolRunsAllJobs(t *testing.T) {
	for _, pool := range newPools(t, 4) {
		var count atomic.Int64
		var wg sync.WaitGroup

		for i := 0; i < 100; i++ {
			wg.Add(1)
			pool.Spawn(func() {
				defer wg.Done()
				count.Add(1)
			})
		}

		wg.Wait()
		require.Equal(t, int64(100), count.Load())
		pool.Shutdown()
	}
}

func TestSharedQueuePoolIsolatesPanics(t *testing.T) {
	pool, err := threadpool.NewSharedQueueThreadPool(4, nil)
	require.NoError(t, err)

	var completed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		pool.Spawn(func() {
			defer wg.Done()
			if i%3 == 0 {
				panic("boom")
			}
			completed.Add(1)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs after a panic never completed; a worker was lost")
	}

	require.Equal(t, int64(66), completed.Load())
	pool.Shutdown()
}
