// Package codec implements the wire protocol between kvs-client and
// kvs-server: one JSON Request in, one JSON Response out, per connection.
package codec

import (
	"encoding/json"
	"io"
)

// Op identifies which operation a Request carries.
type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
	OpGet    Op = "get"
)

// Request is the single message a client sends per connection.
type Request struct {
	Op    Op     `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// NewSetRequest builds a Set request.
func NewSetRequest(key, value string) Request {
	return Request{Op: OpSet, Key: key, Value: value}
}

// NewRemoveRequest builds a Remove request.
func NewRemoveRequest(key string) Request {
	return Request{Op: OpRemove, Key: key}
}

// NewGetRequest builds a Get request.
func NewGetRequest(key string) Request {
	return Request{Op: OpGet, Key: key}
}

// Response is the single message a server sends per connection. Exactly one
// of Value/Err is meaningful: a successful Get sets Value (nil means the key
// was absent); a successful Set/Remove leaves Value nil; a failure sets Err.
type Response struct {
	Value *string `json:"value,omitempty"`
	Err   *string `json:"err,omitempty"`
}

// OkValue builds a successful response carrying a present value.
func OkValue(v string) Response {
	return Response{Value: &v}
}

// OkNone builds a successful response carrying no value (Set/Remove success,
// or a Get that found nothing).
func OkNone() Response {
	return Response{}
}

// ErrResponse builds a failed response carrying a diagnostic message.
func ErrResponse(msg string) Response {
	return Response{Err: &msg}
}

// IsErr reports whether the response represents a failure.
func (r Response) IsErr() bool {
	return r.Err != nil
}

// Encoder writes Request/Response values as self-delimiting JSON onto w.
type Encoder struct {
	enc *json.Encoder
}

// NewEncoder wraps w for writing.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// EncodeRequest writes one Request.
func (e *Encoder) EncodeRequest(req Request) error {
	return e.enc.Encode(req)
}

// EncodeResponse writes one Response.
func (e *Encoder) EncodeResponse(resp Response) error {
	return e.enc.Encode(resp)
}

// Decoder reads Request/Response values from r. Because json.Decoder stops
// reading as soon as one complete JSON value has been consumed, it does not
// require the peer to close the stream and tolerates a reader that delivers
// bytes in arbitrarily small chunks — exactly the "streaming-tolerant, one
// message per connection" contract the wire protocol requires.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r for reading.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// DecodeRequest reads one Request.
func (d *Decoder) DecodeRequest() (Request, error) {
	var req Request
	err := d.dec.Decode(&req)
	return req, err
}

// DecodeResponse reads one Response.
func (d *Decoder) DecodeResponse() (Response, error) {
	var resp Response
	err := d.dec.Decode(&resp)
	return resp, err
}
