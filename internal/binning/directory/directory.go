// Package directory implements a binning directory: a probabilistic k-mer
// membership index over a fixed collection of bins (disjoint reference
// sequence sets). Given a query text it reports, for every bin, an
// approximate count of how many of the query's k-mers occur in that bin,
// and derives from a threshold the boolean vector "which bins likely
// contain this query".
//
// Two layouts share one engine skeleton:
//
// Interleaved Bloom Filter (IBF). One bit vector holds the per-bin Bloom
// filters interleaved: the bits of all N bins for the same hash value form
// a contiguous block, padded to a multiple of 64 so blocks are word
// aligned. A single 64-bit read answers membership for 64 bins at once.
//
//	            block 0                     block 1
//	+---------------------------+---------------------------+--
//	| bin0 bin1 ... binN-1  pad | bin0 bin1 ... binN-1  pad |
//	+---------------------------+---------------------------+--
//	  <----- blockBitSize ----->
//
// A k-mer is in bin b iff all h hash functions hit a set bit at offset b
// of their block. False positives are possible, false negatives are not.
//
// Direct Addressing (DA). The k-mer hash itself is the block index; no
// Bloom hash functions, no false positives. Only usable when 4^k blocks
// fit in the vector, so any hash past the end is dropped with a
// diagnostic.
//
// Concurrency contract: inserts from different goroutines into different
// bins are safe (bit sets are atomic ORs); queries must not run
// concurrently with inserts or clears on the same filter, the caller
// quiesces writes first.
package directory

import (
	"fmt"
	"log/slog"

	"bindir.lopezb.com/internal/binning/bitvec"
)

// Kind selects the bit layout of a directory. It is fixed at construction
// and recorded in the file header.
type Kind uint8

const (
	// InterleavedBloomFilter hashes every k-mer h times into interleaved
	// per-bin Bloom filters.
	InterleavedBloomFilter Kind = 1

	// DirectAddressing uses the k-mer hash directly as the block index.
	DirectAddressing Kind = 2
)

func (k Kind) String() string {
	switch k {
	case InterleavedBloomFilter:
		return "ibf"
	case DirectAddressing:
		return "direct-addressing"
	}
	return "unknown"
}

// Hard limits. MaxBins is well above the soft sizing guidance (1024 bins)
// so that wide deployments keep working; MaxBits caps the backing
// allocation before make() gets a chance to take the process down.
const (
	MaxBins      = 1 << 16
	MaxHashFuncs = 5
	MaxBits      = uint64(1) << 44
)

// Config carries the construction parameters of a directory. All fields
// are immutable after New except the bin count and, when the blocks
// widen, the vector size; only ResizeBins changes them.
type Config struct {
	// Kind selects the layout. Required.
	Kind Kind

	// Bins is the number of bins N, 1 <= N <= MaxBins.
	Bins uint32

	// HashFuncs is the number of Bloom hash functions h, 1 <= h <= 5.
	// Ignored for the direct-addressing layout.
	HashFuncs uint8

	// KmerSize is the window length k, 1 <= k <= 32. The CLI narrows this
	// to the 14..32 band that makes sense for genome-scale references;
	// the library accepts small k for direct-addressing directories.
	KmerSize uint8

	// Bits is the total vector size m. Must be a positive multiple of the
	// block size ceil(Bins/64)*64.
	Bits uint64

	// Chunks partitions the block range for chunked insertion. Zero means
	// one chunk.
	Chunks uint8

	// Logger receives capacity diagnostics and progress lines. Nil
	// disables logging.
	Logger *slog.Logger
}

// Directory is a binning directory over a single uncompressed bit vector.
type Directory struct {
	kind      Kind
	bins      uint32
	hashFuncs uint8
	kmerSize  uint8
	bits      uint64

	// Derived geometry. initGeometry derives binWidth and blockBitSize
	// from bins; blocks is set once by New.
	binWidth     uint64
	blockBitSize uint64
	blocks       uint64

	chunks uint64

	preCalc []uint64
	vec     *bitvec.Vector
	logger  *slog.Logger
}

// New constructs an empty directory from parameters. The vector is
// allocated zeroed; population happens through InsertKmer.
func New(cfg Config) (*Directory, error) {
	if cfg.Kind != InterleavedBloomFilter && cfg.Kind != DirectAddressing {
		return nil, fmt.Errorf("%w: unknown layout %d", ErrConfig, cfg.Kind)
	}
	if cfg.Bins < 1 || cfg.Bins > MaxBins {
		return nil, fmt.Errorf("%w: %d bins (supported range 1..%d)", ErrConfig, cfg.Bins, MaxBins)
	}
	if cfg.KmerSize < 1 || cfg.KmerSize > 32 {
		return nil, fmt.Errorf("%w: k-mer size %d (supported range 1..32)", ErrConfig, cfg.KmerSize)
	}
	if cfg.Kind == InterleavedBloomFilter {
		if cfg.HashFuncs < 1 || cfg.HashFuncs > MaxHashFuncs {
			return nil, fmt.Errorf("%w: %d hash functions (supported range 1..%d)", ErrConfig, cfg.HashFuncs, MaxHashFuncs)
		}
	} else {
		cfg.HashFuncs = 0
	}

	chunks := uint64(cfg.Chunks)
	if chunks == 0 {
		chunks = 1
	}

	d := &Directory{
		kind:      cfg.Kind,
		bins:      cfg.Bins,
		hashFuncs: cfg.HashFuncs,
		kmerSize:  cfg.KmerSize,
		bits:      cfg.Bits,
		chunks:    chunks,
		logger:    cfg.Logger,
	}
	d.initGeometry()

	if cfg.Bits == 0 || cfg.Bits%d.blockBitSize != 0 {
		return nil, fmt.Errorf("%w: %d bits is not a positive multiple of the %d-bit block size",
			ErrConfig, cfg.Bits, d.blockBitSize)
	}
	if cfg.Bits > MaxBits {
		return nil, fmt.Errorf("%w: %d bits exceeds the supported maximum of %d", ErrResource, cfg.Bits, MaxBits)
	}
	d.blocks = cfg.Bits / d.blockBitSize

	d.vec = bitvec.New(cfg.Bits)
	return d, nil
}

// Kind returns the layout of the directory.
func (d *Directory) Kind() Kind { return d.kind }

// Bins returns the number of bins N.
func (d *Directory) Bins() uint32 { return d.bins }

// HashFuncs returns the number of Bloom hash functions (0 for DA).
func (d *Directory) HashFuncs() uint8 { return d.hashFuncs }

// KmerSize returns the window length k.
func (d *Directory) KmerSize() uint8 { return d.kmerSize }

// Bits returns the vector size m in bits.
func (d *Directory) Bits() uint64 { return d.bits }

// BlockBitSize returns the padded per-hash block width in bits.
func (d *Directory) BlockBitSize() uint64 { return d.blockBitSize }

// Blocks returns the number of distinct hash-block positions.
func (d *Directory) Blocks() uint64 { return d.blocks }

// Chunks returns the number of insertion chunks (1 unless configured).
func (d *Directory) Chunks() uint64 { return d.chunks }
