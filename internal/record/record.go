// Package record defines the on-disk log record format: the self-delimiting
// JSON values concatenated inside every segment file.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrUnknownKind is returned when a decoded record's Kind tag matches
// neither KindSet nor KindRemove, violating the on-disk format's single
// invariant.
var ErrUnknownKind = errors.New("record: unknown kind")

// Kind tags which variant a Record holds.
type Kind string

const (
	// KindSet declares the current value of a key.
	KindSet Kind = "set"
	// KindRemove declares a key absent (a tombstone).
	KindRemove Kind = "remove"
)

// Record is a single on-disk log entry: either a Set or a Remove. Only the
// fields relevant to Kind are populated; Value is empty for a Remove.
type Record struct {
	Kind  Kind   `json:"kind"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// NewSet builds a Set record.
func NewSet(key, value string) Record {
	return Record{Kind: KindSet, Key: key, Value: value}
}

// NewRemove builds a Remove (tombstone) record.
func NewRemove(key string) Record {
	return Record{Kind: KindRemove, Key: key}
}

// Marshal serializes the record to its on-disk JSON representation.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Decoder reads a sequence of concatenated JSON records from a segment file,
// tracking the byte offset each record started and ended at so callers can
// build CommandPosition entries while replaying a log.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r for sequential record replay. r must report accurate
// byte offsets via (*json.Decoder).InputOffset, which holds for any
// io.Reader backed by a real file.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next decodes the next record and returns it along with the [start, end)
// byte span it occupied in the stream. It returns io.EOF when the stream is
// exhausted cleanly between records.
func (d *Decoder) Next() (rec Record, start, end int64, err error) {
	start = d.dec.InputOffset()
	if err := d.dec.Decode(&rec); err != nil {
		return Record{}, start, start, err
	}
	end = d.dec.InputOffset()

	if rec.Kind != KindSet && rec.Kind != KindRemove {
		return rec, start, end, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}

	return rec, start, end, nil
}
