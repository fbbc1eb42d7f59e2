package server_test

import (
	"testing"
	"time"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/client"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/engine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/server"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/threadpool"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
	"github.com/stretchr/testify/require"
)

func TestServerClientRoundTrip(t *testing.T) {
	e, err := engine.Open(&engine.Config{Options: options.New(options.WithDataDir(t.TempDir()))})
	require.NoError(t, err)
	defer e.Close()

	pool, err := threadpool.NewSharedQueueThreadPool(4, nil)
	require.NoError(t, err)

	srv, err := server.New("127.0.0.1:0", &server.Config{
		Store: server.WrapLogStructured(e),
		Pool:  pool,
	})
	require.NoError(t, err)

	go srv.Serve()
	defer srv.Stop()

	addr := srv.Addr().String()

	// Give the accept loop a moment to be ready; the listener is already
	// bound by server.New, so this is mostly a formality.
	time.Sleep(10 * time.Millisecond)

	// Each request gets its own connection: server and client both honor
	// the one-request-per-connection contract.
	set, err := client.Connect(addr)
	require.NoError(t, err)
	require.NoError(t, set.Set("foo", "bar"))
	require.NoError(t, set.Close())

	get, err := client.Connect(addr)
	require.NoError(t, err)
	value, ok, err := get.Get("foo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "bar", value)
	require.NoError(t, get.Close())

	rm, err := client.Connect(addr)
	require.NoError(t, err)
	require.NoError(t, rm.Remove("foo"))
	require.NoError(t, rm.Close())

	get2, err := client.Connect(addr)
	require.NoError(t, err)
	_, ok, err = get2.Get("foo")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, get2.Close())
}
