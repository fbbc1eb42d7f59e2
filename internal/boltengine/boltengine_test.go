package boltengine_test

import (
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/boltengine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/engine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
	"github.com/stretchr/testify/require"
)

func TestSetGetRemove(t *testing.T) {
	dir := t.TempDir()
	e, err := boltengine.Open(&boltengine.Config{Options: options.New(options.WithDataDir(dir))})
	require.NoError(t, err)
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
	require.True(t, errors.IsKeyNotFound(err))
}

func TestChangeEngineErrorAcrossBackends(t *testing.T) {
	dir := t.TempDir()

	e, err := engine.Open(&engine.Config{Options: options.New(options.WithDataDir(dir))})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = boltengine.Open(&boltengine.Config{Options: options.New(options.WithDataDir(dir))})
	require.Error(t, err)

	ee, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeChangeEngine, ee.Code())
}
