// bd-indexer builds an interleaved Bloom filter over a collection of
// reference bins and writes it to disk for bd-server to serve.
//
// References are per-bin FASTA files named <prefix><bin>.fna, optionally
// gzip compressed as <prefix><bin>.fna.gz, with bins numbered 0..N-1.
// Ambiguous IUPAC bases are resolved to random valid bases before
// hashing; the substitution is seeded per bin, so rebuilding the same
// references yields a bit-identical filter.
//
// Usage:
//
//	bd-indexer -b 64 -k 20 --filter-size-bits 34359738368 refs/bin_
//
// writes refs/bin_bloom.bf (override the prefix with -o).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"bindir.lopezb.com/internal/binning/build"
	"bindir.lopezb.com/internal/binning/directory"
)

type config struct {
	bins       uint32
	kmerSize   uint8
	hashFuncs  uint8
	filterBits uint64
	chunks     uint8
	threads    int
	outPrefix  string
	tmpDir     string
	seed       int64
	verbose    bool
}

func main() {
	var cfg config

	pflag.Uint32VarP(&cfg.bins, "number-of-bins", "b", 64, "Number of reference bins (1..1000)")
	pflag.Uint8VarP(&cfg.kmerSize, "kmer-size", "k", 20, "K-mer length (14..32)")
	pflag.Uint8Var(&cfg.hashFuncs, "num-hash", 2, "Bloom hash functions (1..5)")
	pflag.Uint64Var(&cfg.filterBits, "filter-size-bits", 1<<33, "Filter size in bits (rounded up to the block size)")
	pflag.Uint8Var(&cfg.chunks, "chunks", 1, "Insertion chunks per bin")
	pflag.IntVarP(&cfg.threads, "threads", "t", runtime.NumCPU(), "Concurrent bin ingests")
	pflag.StringVarP(&cfg.outPrefix, "output-prefix", "o", "", "Output prefix (defaults to the reference prefix)")
	pflag.StringVar(&cfg.tmpDir, "tmp-dir", "", "Scratch directory for temporary files (defaults to the output directory)")
	pflag.Int64Var(&cfg.seed, "seed", 0, "Seed for ambiguous-base resolution")
	pflag.BoolVarP(&cfg.verbose, "verbose", "v", false, "Verbose output")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: bd-indexer [options] <REFERENCE PREFIX>\n")
		pflag.PrintDefaults()
		os.Exit(1)
	}
	refPrefix := pflag.Arg(0)

	if cfg.bins < 1 || cfg.bins > 1000 {
		fmt.Fprintf(os.Stderr, "The number of bins must be between 1 and 1000.\n")
		os.Exit(1)
	}
	if cfg.kmerSize < 14 || cfg.kmerSize > 32 {
		fmt.Fprintf(os.Stderr, "The k-mer size must be between 14 and 32.\n")
		os.Exit(1)
	}
	if cfg.hashFuncs < 1 || cfg.hashFuncs > directory.MaxHashFuncs {
		fmt.Fprintf(os.Stderr, "The number of hash functions must be between 1 and %d.\n", directory.MaxHashFuncs)
		os.Exit(1)
	}
	if cfg.outPrefix == "" {
		cfg.outPrefix = refPrefix
	}
	// Scratch files default next to the output, so they land on a
	// filesystem with room for them.
	if cfg.tmpDir == "" {
		cfg.tmpDir = filepath.Dir(cfg.outPrefix)
	}
	os.Setenv("TMPDIR", cfg.tmpDir)

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Round the requested size up to a whole number of blocks.
	blockBitSize := ((uint64(cfg.bins) + 63) / 64) * 64
	bits := ((cfg.filterBits + blockBitSize - 1) / blockBitSize) * blockBitSize

	d, err := directory.New(directory.Config{
		Kind:      directory.InterleavedBloomFilter,
		Bins:      cfg.bins,
		HashFuncs: cfg.hashFuncs,
		KmerSize:  cfg.kmerSize,
		Bits:      bits,
		Chunks:    cfg.chunks,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Insufficient memory to index the reference.\n")
		os.Exit(1)
	}

	sources, err := build.Sources(refPrefix, cfg.bins)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error while opening the reference file.\n")
		os.Exit(1)
	}

	start := time.Now()
	logger.Info("indexing references",
		"bins", cfg.bins,
		"kmer_size", cfg.kmerSize,
		"hash_functions", cfg.hashFuncs,
		"bits", bits,
		"threads", cfg.threads)

	if err := build.Build(d, sources, build.Options{
		Workers: cfg.threads,
		Seed:    cfg.seed,
		Logger:  logger,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error while indexing the reference: %v\n", err)
		os.Exit(1)
	}
	logger.Info("references indexed", "duration", time.Since(start))

	outPath := cfg.outPrefix + "bloom.bf"
	if err := d.Save(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error while saving the filter file.\n")
		os.Exit(1)
	}
	logger.Info("filter saved", "path", outPath, "fingerprint", fmt.Sprintf("%x", d.Fingerprint()))
}
