package codec_test

import (
	"bytes"
	"testing"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []codec.Request{
		codec.NewSetRequest("foo", "bar"),
		codec.NewRemoveRequest("foo"),
		codec.NewGetRequest("foo"),
	}

	for _, req := range cases {
		var buf bytes.Buffer
		require.NoError(t, codec.NewEncoder(&buf).EncodeRequest(req))

		got, err := codec.NewDecoder(&buf).DecodeRequest()
		require.NoError(t, err)
		require.Equal(t, req, got)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	value := "bar"
	errMsg := "key not found"

	cases := []codec.Response{
		codec.OkValue("bar"),
		codec.OkNone(),
		codec.ErrResponse("key not found"),
	}

	for _, resp := range cases {
		var buf bytes.Buffer
		require.NoError(t, codec.NewEncoder(&buf).EncodeResponse(resp))

		got, err := codec.NewDecoder(&buf).DecodeResponse()
		require.NoError(t, err)
		require.Equal(t, resp, got)
	}

	require.True(t, codec.ErrResponse(errMsg).IsErr())
	require.False(t, codec.OkValue(value).IsErr())
}

func TestDecoderStopsAtOneMessage(t *testing.T) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf)
	require.NoError(t, enc.EncodeRequest(codec.NewGetRequest("a")))
	require.NoError(t, enc.EncodeRequest(codec.NewGetRequest("b")))

	dec := codec.NewDecoder(&buf)
	first, err := dec.DecodeRequest()
	require.NoError(t, err)
	require.Equal(t, "a", first.Key)

	second, err := dec.DecodeRequest()
	require.NoError(t, err)
	require.Equal(t, "b", second.Key)
}
