// Command kvs-server runs the key/value store's TCP request server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/boltengine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/engine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/server"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/threadpool"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/filesys"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/logger"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/pkg/options"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		addr        string
		dataDir     string
		engineName  string
		threshold   uint64
		workers     uint
		poolVariant string
	)

	flag.StringVar(&addr, "addr", "127.0.0.1:4000", "listen address")
	flag.StringVar(&dataDir, "data-dir", ".", "directory to store data under")
	flag.StringVar(&engineName, "engine", "", "storage backend: kvs or sled (default: auto-detect from data-dir contents, else kvs)")
	flag.Uint64Var(&threshold, "compaction-threshold", options.DefaultCompactionThreshold, "dead bytes threshold that triggers compaction")
	flag.UintVar(&workers, "workers", 4, "number of worker goroutines")
	flag.StringVar(&poolVariant, "pool", "shared-queue", "thread pool variant: naive, shared-queue, delegating")
	flag.Parse()

	log := logger.New("kvs-server")
	defer log.Sync()

	engineType, err := resolveEngine(engineName, dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvs-server:", err)
		os.Exit(1)
	}

	opts := options.New(
		options.WithDataDir(dataDir),
		options.WithEngine(engineType),
		options.WithCompactionThreshold(threshold),
	)

	store, err := openStore(opts, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvs-server:", err)
		os.Exit(1)
	}

	pool, err := buildPool(poolVariant, workers)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvs-server:", err)
		os.Exit(1)
	}

	srv, err := server.New(addr, &server.Config{Store: store, Pool: pool, Logger: log})
	if err != nil {
		fmt.Fprintln(os.Stderr, "kvs-server:", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Infow("shutting down")
		srv.Stop()
	}()

	if err := srv.Serve(); err != nil {
		fmt.Fprintln(os.Stderr, "kvs-server:", err)
		os.Exit(1)
	}
}

// resolveEngine implements §6.3's documented default: when requested is
// empty, auto-detect from dataDir's contents (a "sled" subdirectory means
// the directory was already initialized for that engine); an empty
// directory defaults to kvs.
func resolveEngine(requested, dataDir string) (options.EngineType, error) {
	if requested != "" {
		return options.EngineType(requested), nil
	}

	sledDir := filepath.Join(dataDir, string(options.EngineSled))
	exists, err := filesys.Exists(sledDir)
	if err != nil {
		return "", err
	}
	if exists {
		return options.EngineSled, nil
	}

	return options.EngineKVS, nil
}

func openStore(opts *options.Options, log *zap.SugaredLogger) (server.Store, error) {
	switch opts.Engine {
	case options.EngineSled:
		e, err := boltengine.Open(&boltengine.Config{Options: opts, Logger: log})
		if err != nil {
			return nil, err
		}
		return server.WrapBolt(e), nil
	default:
		e, err := engine.Open(&engine.Config{Options: opts, Logger: log})
		if err != nil {
			return nil, err
		}
		return server.WrapLogStructured(e), nil
	}
}

func buildPool(variant string, workers uint) (threadpool.ThreadPool, error) {
	switch variant {
	case "naive":
		return threadpool.NewNaiveThreadPool(workers)
	case "delegating":
		return threadpool.NewDelegatingThreadPool(workers)
	default:
		return threadpool.NewSharedQueueThreadPool(workers, nil)
	}
}
