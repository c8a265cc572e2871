// bd-server serves k-mer binning queries over a filter file built by
// bd-indexer. The filter is loaded once at startup and never mutated, so
// any number of concurrent clients can query it without locking.
//
// The wire protocol is RESP, so redis-cli and any Redis client library
// work out of the box:
//
//	redis-cli -p 6479 BD.COUNT ACGTACGTACGTACGT
//	redis-cli -p 6479 BD.SELECT 3 ACGTACGTACGTACGT
//
// BD.COUNT returns one integer per bin: how many of the query's k-mers
// that bin contains. BD.SELECT applies a threshold and returns 0/1 per
// bin. BD.INFO returns a JSON description of the loaded filter.
package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/semaphore"

	"bindir.lopezb.com/internal/binning/directory"
)

type config struct {
	port            int
	maxConnections  int
	shutdownTimeout time.Duration
	idleTimeout     time.Duration
	filterPath      string
	verbose         bool
}

type application struct {
	config      config
	logger      *slog.Logger
	listener    net.Listener
	dir         *directory.Directory
	fingerprint uint64
	readyCh     chan struct{}

	// sem caps concurrent sessions and doubles as the shutdown drain:
	// acquiring it at full weight waits out every live session.
	sem *semaphore.Weighted

	totalConnections atomic.Uint64
	totalCommands    atomic.Uint64
}

func main() {
	var cfg config

	pflag.IntVarP(&cfg.port, "port", "p", 6479, "TCP server port")
	pflag.IntVar(&cfg.maxConnections, "max-conn", 100, "Maximum concurrent connections")
	pflag.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	pflag.DurationVar(&cfg.idleTimeout, "idle-timeout", 0, "Idle client connection timeout (0 for no timeout)")
	pflag.StringVarP(&cfg.filterPath, "filter", "f", "bloom.bf", "Filter file to serve")
	pflag.BoolVarP(&cfg.verbose, "verbose", "v", false, "Verbose output")
	pflag.Parse()

	level := slog.LevelInfo
	if !cfg.verbose {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	d, err := directory.Load(cfg.filterPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error while loading the filter file: %v\n", err)
		os.Exit(1)
	}
	logger.Info("filter loaded",
		"path", cfg.filterPath,
		"layout", d.Kind().String(),
		"bins", d.Bins(),
		"kmer_size", d.KmerSize(),
		"bits", d.Bits())

	app := &application{
		config:      cfg,
		logger:      logger,
		dir:         d,
		fingerprint: d.Fingerprint(),
		sem:         semaphore.NewWeighted(int64(cfg.maxConnections)),
	}

	if err := app.serve(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
