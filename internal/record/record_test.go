package record_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/record"
	"github.com/stretchr/testify/require"
)

func TestSetRemoveRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	set, err := record.NewSet("a", "1").Marshal()
	require.NoError(t, err)
	buf.Write(set)

	rm, err := record.NewRemove("a").Marshal()
	require.NoError(t, err)
	buf.Write(rm)

	dec := record.NewDecoder(&buf)

	rec, start, end, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, record.NewSet("a", "1"), rec)
	require.Equal(t, int64(0), start)
	require.Equal(t, int64(len(set)), end)

	rec, start, end, err = dec.Next()
	require.NoError(t, err)
	require.Equal(t, record.NewRemove("a"), rec)
	require.Equal(t, int64(len(set)), start)
	require.Equal(t, int64(len(set)+len(rm)), end)

	_, _, _, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestUnknownKindRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(`{"kind":"bogus","key":"a"}`)

	dec := record.NewDecoder(&buf)
	_, _, _, err := dec.Next()
	require.ErrorIs(t, err, record.ErrUnknownKind)
}
