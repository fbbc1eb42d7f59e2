// Package boltengine adapts go.etcd.io/bbolt, a single-file embedded
// ordered key/value store, to the same three-operation contract the
// log-structured engine exposes. It exists so the server can run against
// either backend interchangeably via options.EngineSled.
//
// bbolt commits are synchronous by default: every successful db.Update call
// has already been fsynced before it returns. That makes the "durable
// remove" requirement trivially true here rather than something this
// package has to engineer, unlike the log-structured engine where a Remove
// must explicitly flush its tombstone record.
package boltengine

import (
	stdErrors "errors"
	"path/filepath"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/filesys"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const name = "sled"

var bucketName = []byte("kv")

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")

// Engine is a bbolt-backed implementation of the Set/Get/Remove contract.
type Engine struct {
	db     *bolt.DB
	log    *zap.SugaredLogger
	closed bool
}

// Config holds the parameters needed to open an Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// Open creates or opens the bbolt database file under the "sled"
// subdirectory of config.Options.DataDir.
func Open(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required")
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if err := checkSiblingEngine(config.Options.DataDir, options.EngineKVS); err != nil {
		return nil, err
	}

	dir := filepath.Join(config.Options.DataDir, string(options.EngineSled))
	if err := filesys.CreateDir(dir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, dir)
	}

	path := filepath.Join(dir, "bolt.db")
	db, err := bolt.Open(path, 0600, bolt.DefaultOptions)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open bbolt database").WithPath(path)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create kv bucket").WithPath(path)
	}

	log.Infow("bolt engine opened", "path", path)
	return &Engine{db: db, log: log}, nil
}

// Set writes key=value, replacing any prior value.
func (e *Engine) Set(key, value string) error {
	if e.closed {
		return ErrEngineClosed
	}

	return e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if err := b.Put([]byte(key), []byte(value)); err != nil {
			return errors.NewEngineError(err, errors.ErrorCodeIO, "failed to write key").WithKey(key).WithEngine(name)
		}
		return nil
	})
}

// Remove deletes key, failing with KeyNotFound if it has no live record.
func (e *Engine) Remove(key string) error {
	if e.closed {
		return ErrEngineClosed
	}

	return e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return errors.NewKeyNotFoundEngineError(key, name)
		}
		if err := b.Delete([]byte(key)); err != nil {
			return errors.NewEngineError(err, errors.ErrorCodeIO, "failed to delete key").WithKey(key).WithEngine(name)
		}
		return nil
	})
}

// Get returns the current value of key, or ok=false if it has no live record.
func (e *Engine) Get(key string) (value string, ok bool, err error) {
	if e.closed {
		return "", false, ErrEngineClosed
	}

	err = e.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		ok = true
		value = string(v)
		return nil
	})
	return value, ok, err
}

// Clone returns the same Engine handle: bbolt's *DB is already safe for
// concurrent use by many goroutines, so unlike the log-structured engine
// there is no per-goroutine reader cache to duplicate.
func (e *Engine) Clone() *Engine {
	return e
}

// Close closes the underlying bbolt database.
func (e *Engine) Close() error {
	if e.closed {
		return ErrEngineClosed
	}
	e.closed = true

	if err := e.db.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close bbolt database")
	}
	return nil
}

// checkSiblingEngine refuses to open this engine if dataDir already holds a
// subdirectory belonging to the other engine type: the directory-per-engine
// layout makes a sibling directory's mere existence the conflict signal.
func checkSiblingEngine(dataDir string, other options.EngineType) error {
	otherDir := filepath.Join(dataDir, string(other))

	exists, err := filesys.Exists(otherDir)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to check for sibling engine directory").WithPath(otherDir)
	}
	if exists {
		return errors.NewChangeEngineError(name, string(other))
	}

	return nil
}
