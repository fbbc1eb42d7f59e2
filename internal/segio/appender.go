// Package segio provides the append-only writer and positioned-reader
// primitives a log-structured engine builds its segment files on top of.
// It generalizes the teacher's single "active segment file" bookkeeping
// (open, seek-to-end, track size) into a reusable writer type plus a
// reader-side cache that multiple engine clones can each own independently.
package segio

import (
	"bufio"
	"io"
	"os"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
)

// PositionedAppender is a single-writer positioned byte sink at the tail of
// one segment file. Its position is advanced on every successful write and
// must never diverge from the file's actual length.
type PositionedAppender struct {
	file     *os.File
	writer   *bufio.Writer
	position int64
	path     string
}

// NewAppender opens path for append, creating it if necessary, and seeks to
// its current end so Position reflects whatever bytes already exist there.
func NewAppender(path string) (*PositionedAppender, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to open segment file for append",
		).WithPath(path)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to seek to end of segment file",
		).WithPath(path)
	}

	return &PositionedAppender{
		file:     file,
		writer:   bufio.NewWriter(file),
		position: offset,
		path:     path,
	}, nil
}

// Position returns the byte offset the next Write will land at.
func (a *PositionedAppender) Position() int64 {
	return a.position
}

// Write appends p to the segment, advancing Position by len(p) on success.
func (a *PositionedAppender) Write(p []byte) (int, error) {
	n, err := a.writer.Write(p)
	a.position += int64(n)
	if err != nil {
		return n, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write segment record").WithPath(a.path)
	}
	return n, nil
}

// Flush pushes buffered bytes to the underlying file without fsyncing.
func (a *PositionedAppender) Flush() error {
	return a.writer.Flush()
}

// Sync flushes buffered bytes and fsyncs the underlying file, guaranteeing
// durability of every write accepted so far.
func (a *PositionedAppender) Sync() error {
	if err := a.writer.Flush(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush segment writer").WithPath(a.path)
	}
	if err := a.file.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to fsync segment file").WithPath(a.path)
	}
	return nil
}

// Close flushes and closes the underlying file handle.
func (a *PositionedAppender) Close() error {
	if err := a.writer.Flush(); err != nil {
		_ = a.file.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush segment writer on close").WithPath(a.path)
	}
	if err := a.file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment file").WithPath(a.path)
	}
	return nil
}
