package directory

import (
	"fmt"

	"bindir.lopezb.com/internal/binning/kmer"
)

// InsertKmer hashes every overlapping k-mer of text and records each one
// as present in bin. Bits are set with atomic ORs, so concurrent inserts
// into different bins are safe.
//
// For the direct-addressing layout a k-mer whose hash falls past the end
// of the vector cannot be recorded; it is skipped and counted, and one
// summary line is logged per call. Queries for such a k-mer later report
// it absent, so an undersized vector trades capacity errors for false
// negatives. Size the vector to 4^k blocks to rule this out.
func (d *Directory) InsertKmer(text []byte, bin uint32) error {
	return d.InsertKmerChunk(text, bin, 0)
}

// InsertKmerChunk is InsertKmer restricted to one chunk of the block
// range. With C chunks, chunk c owns the contiguous block sub-range
// [c*ceil(blocks/C), (c+1)*ceil(blocks/C)), so C callers covering all
// chunks together touch every block exactly once and the union of their
// inserts equals one unrestricted insert.
func (d *Directory) InsertKmerChunk(text []byte, bin uint32, chunk uint8) error {
	if uint64(chunk) >= d.chunks {
		return fmt.Errorf("%w: chunk %d of %d", ErrConfig, chunk, d.chunks)
	}
	if bin >= d.bins {
		return fmt.Errorf("%w: bin %d of %d", ErrConfig, bin, d.bins)
	}

	blocksPerChunk := (d.blocks + d.chunks - 1) / d.chunks
	firstBlock := uint64(chunk) * blocksPerChunk
	lastBlock := firstBlock + blocksPerChunk
	if lastBlock > d.blocks {
		lastBlock = d.blocks
	}

	s, err := kmer.New(int(d.kmerSize))
	if err != nil {
		return err
	}
	if err := s.Init(text); err != nil {
		return err
	}

	skipped := 0
	for {
		h, ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		switch d.kind {
		case InterleavedBloomFilter:
			for i := uint8(0); i < d.hashFuncs; i++ {
				idx := d.hashToIndex(d.preCalc[i] * h)
				if block := idx / d.blockBitSize; block < firstBlock || block >= lastBlock {
					continue
				}
				d.vec.SetPos(idx + uint64(bin))
			}

		case DirectAddressing:
			if h >= d.blocks {
				skipped++
				continue
			}
			if h < firstBlock || h >= lastBlock {
				continue
			}
			d.vec.SetPos(h*d.blockBitSize + uint64(bin))
		}
	}

	if skipped > 0 && d.logger != nil {
		d.logger.Warn("filter too small, k-mers dropped",
			"err", ErrCapacity, "bin", bin, "dropped", skipped, "blocks", d.blocks)
	}
	return nil
}
