// Package client implements the one-shot request client: connect, send a
// single Request, read a single Response, close.
package client

import (
	"fmt"
	"net"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/codec"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
)

// Client holds a connection to a running server for the duration of one
// request/response exchange.
type Client struct {
	conn net.Conn
	enc  *codec.Encoder
	dec  *codec.Decoder
}

// Connect dials addr and returns a Client ready to send one request.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.NewProtocolError(err, errors.ErrorCodeIO, "failed to connect to server").WithRemoteAddr(addr)
	}

	return &Client{
		conn: conn,
		enc:  codec.NewEncoder(conn),
		dec:  codec.NewDecoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Set sends a Set request and returns an error if the server reports one.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(codec.NewSetRequest(key, value))
	if err != nil {
		return err
	}
	if resp.IsErr() {
		return fmt.Errorf("%s", *resp.Err)
	}
	return nil
}

// Remove sends a Remove request and returns an error if the server reports one.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(codec.NewRemoveRequest(key))
	if err != nil {
		return err
	}
	if resp.IsErr() {
		return fmt.Errorf("%s", *resp.Err)
	}
	return nil
}

// Get sends a Get request, returning ok=false if the key had no value.
func (c *Client) Get(key string) (value string, ok bool, err error) {
	resp, err := c.roundTrip(codec.NewGetRequest(key))
	if err != nil {
		return "", false, err
	}
	if resp.IsErr() {
		return "", false, fmt.Errorf("%s", *resp.Err)
	}
	if resp.Value == nil {
		return "", false, nil
	}
	return *resp.Value, true, nil
}

func (c *Client) roundTrip(req codec.Request) (codec.Response, error) {
	if err := c.enc.EncodeRequest(req); err != nil {
		return codec.Response{}, errors.NewProtocolError(err, errors.ErrorCodeProtocolEncode, "failed to send request")
	}

	resp, err := c.dec.DecodeResponse()
	if err != nil {
		return codec.Response{}, errors.NewProtocolError(err, errors.ErrorCodeProtocolDecode, "failed to read response")
	}

	return resp, nil
}
