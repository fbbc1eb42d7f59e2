package ignite_test

import (
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/ignite"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
	"github.com/stretchr/testify/require"
)

func TestInstanceSetGetDeleteLogStructured(t *testing.T) {
	db, err := ignite.NewInstance("ignite-test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set("a", "1"))

	value, ok, err := db.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)

	exists, err := db.Exists("a")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, db.Delete("a"))

	exists, err = db.Exists("a")
	require.NoError(t, err)
	require.False(t, exists)

	err = db.Delete("a")
	require.True(t, errors.IsKeyNotFound(err))
}

func TestInstanceSetGetDeleteBoltBackend(t *testing.T) {
	db, err := ignite.NewInstance(
		"ignite-test",
		options.WithDataDir(t.TempDir()),
		options.WithEngine(options.EngineSled),
	)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set("a", "1"))

	value, ok, err := db.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)
}
