// Package build bulk-populates a binning directory from per-bin FASTA
// reference files.
package build

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"

	"golang.org/x/sync/errgroup"

	"bindir.lopezb.com/internal/binning/directory"
	"bindir.lopezb.com/internal/binning/fasta"
	"bindir.lopezb.com/internal/binning/kmer"
)

// BinSource names the reference file feeding one bin.
type BinSource struct {
	Bin  uint32
	Path string
}

// Options tunes a bulk build.
type Options struct {
	// Workers bounds the number of bins ingested concurrently. Values
	// below 1 mean one worker.
	Workers int

	// Seed drives the deterministic resolution of ambiguous bases. Each
	// bin uses Seed+bin, so the filter contents do not depend on worker
	// scheduling.
	Seed int64

	// Logger receives one progress line per ingested bin. Nil disables
	// progress reporting. slog serializes handler output, so workers log
	// without extra locking.
	Logger *slog.Logger
}

// Sources resolves <prefix><bin>.fna, falling back to .fna.gz, for every
// bin in [0, bins). A bin with neither file present is an error: a
// missing reference would silently produce an empty bin.
func Sources(prefix string, bins uint32) ([]BinSource, error) {
	out := make([]BinSource, 0, bins)
	for bin := uint32(0); bin < bins; bin++ {
		plain := fmt.Sprintf("%s%d.fna", prefix, bin)
		if _, err := os.Stat(plain); err == nil {
			out = append(out, BinSource{Bin: bin, Path: plain})
			continue
		}
		zipped := plain + ".gz"
		if _, err := os.Stat(zipped); err == nil {
			out = append(out, BinSource{Bin: bin, Path: zipped})
			continue
		}
		return nil, fmt.Errorf("%w: no reference file for bin %d (%s or %s)",
			directory.ErrIO, bin, plain, zipped)
	}
	return out, nil
}

// Build ingests every source into d. Bins are processed by a bounded
// pool of workers; inserts from different bins land on disjoint bits, so
// the atomic bit sets make concurrent ingestion safe. A failing bin does
// not cancel the bins already running; the first error is returned after
// every started worker has finished, and the half-built filter should be
// discarded.
func Build(d *directory.Directory, sources []BinSource, opts Options) error {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			if err := ingestBin(d, src, opts.Seed); err != nil {
				return fmt.Errorf("bin %d (%s): %w", src.Bin, src.Path, err)
			}
			if opts.Logger != nil {
				opts.Logger.Info("bin ingested", "bin", src.Bin, "path", src.Path)
			}
			return nil
		})
	}
	return g.Wait()
}

func ingestBin(d *directory.Directory, src BinSource, seed int64) error {
	r, err := fasta.Open(src.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", directory.ErrIO, err)
	}
	defer r.Close()

	rng := rand.New(rand.NewSource(seed + int64(src.Bin)))
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", directory.ErrIO, err)
		}
		kmer.RandomizeN(rec.Seq, rng)
		if err := d.InsertKmer(rec.Seq, src.Bin); err != nil {
			return err
		}
	}
}
