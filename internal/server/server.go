// Package server implements the TCP request server: it accepts connections,
// dispatches each to a worker from a ThreadPool, reads exactly one Request
// and writes exactly one Response per connection.
package server

import (
	"errors"
	"net"
	"sync"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/codec"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/threadpool"
	kvserrors "github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/errors"
	"go.uber.org/zap"
)

// Store is the three-operation contract every engine backend implements.
// Clone lets every accepted connection work against its own handle so reads
// on one connection never block behind another's file descriptors.
type Store interface {
	Set(key, value string) error
	Remove(key string) error
	Get(key string) (value string, ok bool, err error)
	Clone() Store
	Close() error
}

// Server accepts connections on a TCP listener and dispatches each to the
// configured thread pool.
type Server struct {
	listener net.Listener
	store    Store
	pool     threadpool.ThreadPool
	log      *zap.SugaredLogger

	quit chan struct{}
	wg   sync.WaitGroup
}

// Config holds the parameters needed to construct a Server.
type Config struct {
	Store  Store
	Pool   threadpool.ThreadPool
	Logger *zap.SugaredLogger
}

// New binds addr and returns a Server ready to Serve.
func New(addr string, config *Config) (*Server, error) {
	if config == nil || config.Store == nil || config.Pool == nil {
		return nil, kvserrors.NewValidationError(
			nil, kvserrors.ErrorCodeInvalidInput, "server configuration is required",
		).WithField("config").WithRule("required")
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, kvserrors.NewProtocolError(err, kvserrors.ErrorCodeIO, "failed to bind listener").WithRemoteAddr(addr)
	}

	return &Server{
		listener: ln,
		store:    config.Store,
		pool:     config.Pool,
		log:      log,
		quit:     make(chan struct{}),
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Stop is called, dispatching each to the
// thread pool. It returns nil once Stop has closed the listener.
func (s *Server) Serve() error {
	s.log.Infow("server listening", "addr", s.listener.Addr().String())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				s.log.Errorw("accept failed", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		clone := s.store.Clone()
		s.pool.Spawn(func() {
			defer s.wg.Done()
			s.handleConnection(conn, clone)
		})
	}
}

// Stop closes the listener so Serve returns, then waits for every in-flight
// connection handler to finish.
func (s *Server) Stop() {
	close(s.quit)
	_ = s.listener.Close()
	s.wg.Wait()
	s.pool.Shutdown()
}

func (s *Server) handleConnection(conn net.Conn, store Store) {
	defer conn.Close()

	dec := codec.NewDecoder(conn)
	enc := codec.NewEncoder(conn)

	req, err := dec.DecodeRequest()
	if err != nil {
		s.log.Warnw("failed to decode request", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	resp := s.dispatch(req, store)
	if err := enc.EncodeResponse(resp); err != nil {
		s.log.Warnw("failed to encode response", "remote", conn.RemoteAddr(), "error", err)
	}
}

func (s *Server) dispatch(req codec.Request, store Store) codec.Response {
	switch req.Op {
	case codec.OpSet:
		if err := store.Set(req.Key, req.Value); err != nil {
			return codec.ErrResponse(err.Error())
		}
		return codec.OkNone()

	case codec.OpRemove:
		if err := store.Remove(req.Key); err != nil {
			return codec.ErrResponse(err.Error())
		}
		return codec.OkNone()

	case codec.OpGet:
		value, ok, err := store.Get(req.Key)
		if err != nil {
			return codec.ErrResponse(err.Error())
		}
		if !ok {
			return codec.OkNone()
		}
		return codec.OkValue(value)

	default:
		return codec.ErrResponse(errors.New("unknown request operation").Error())
	}
}
