// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (KeyDir/Index) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for persistent key/value storage in Go applications.
//
// Instance is the embedded, in-process entry point: it opens a backend
// directly against options.Options.DataDir without going through the TCP
// server in internal/server. Callers that want network access should use
// internal/client against a running cmd/kvs-server instead.
package ignite

import (
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/boltengine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/engine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/logger"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
)

// backend is the minimal surface both engine.Engine and boltengine.Engine
// satisfy; Instance talks to whichever one options.Options.Engine selects.
type backend interface {
	Set(key, value string) error
	Remove(key string) error
	Get(key string) (string, bool, error)
	Close() error
}

// Instance represents an instance of the Ignite key/value data store.
// It encapsulates the backend engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for embedding Ignite directly inside
// a Go process, providing methods for setting, getting, and deleting
// key-value pairs without a network hop.
type Instance struct {
	engine  backend          // The underlying engine handling read/write operations.
	options *options.Options // Configuration options applied to this DB instance.
}

// NewInstance creates and initializes a new Ignite DB instance, selecting
// the log-structured engine or the bbolt adapter according to opts.Engine.
func NewInstance(service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	o := options.New(opts...)

	var eng backend
	var err error

	switch o.Engine {
	case options.EngineSled:
		eng, err = boltengine.Open(&boltengine.Config{Options: o, Logger: log})
	default:
		eng, err = engine.Open(&engine.Config{Options: o, Logger: log})
	}
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: o}, nil
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated.
// The operation is durable and will be written to the append-only log.
func (i *Instance) Set(key string, value string) error {
	return i.engine.Set(key, value)
}

// Get retrieves the value associated with the given key. ok is false if
// the key has no live record.
func (i *Instance) Get(key string) (string, bool, error) {
	return i.engine.Get(key)
}

// Delete removes a key-value pair from the database. It fails with a
// KeyNotFound error if the key has no live record.
func (i *Instance) Delete(key string) error {
	return i.engine.Remove(key)
}

// Exists reports whether key currently has a live record, without
// surfacing NotFound as an error.
func (i *Instance) Exists(key string) (bool, error) {
	_, ok, err := i.engine.Get(key)
	if err != nil && !errors.IsKeyNotFound(err) {
		return false, err
	}
	return ok, nil
}

// Close gracefully shuts down the Ignite DB instance, releasing all
// associated resources, flushing any pending writes, and ensuring data
// durability.
func (i *Instance) Close() error {
	return i.engine.Close()
}
