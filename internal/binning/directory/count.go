package directory

import (
	"fmt"
	"math/bits"

	"bindir.lopezb.com/internal/binning/kmer"
)

// Count reports, for every bin, how many of the overlapping k-mers of
// text are present in that bin. counts must have exactly Bins()
// entries; it is zeroed on entry.
//
// A text shorter than k contributes no k-mers and leaves counts all
// zero. For the interleaved layout counts may include Bloom false
// positives; the direct-addressing layout is exact, except that k-mers
// dropped at insert time for lack of capacity are reported absent.
func (d *Directory) Count(counts []uint32, text []byte) error {
	if len(counts) != int(d.bins) {
		return fmt.Errorf("%w: counts has %d entries for %d bins", ErrConfig, len(counts), d.bins)
	}
	for i := range counts {
		counts[i] = 0
	}

	hashes, err := kmer.Hashes(int(d.kmerSize), text)
	if err != nil {
		return err
	}

	// DESIGN: bins are scanned 64 at a time. vecIndices holds the h bit
	// offsets of the current batch; one 64-bit read per hash function,
	// AND-ed together, yields the membership word for 64 consecutive
	// bins. The word is then consumed by a bit-scan loop that jumps
	// straight to the next set bit, so sparse results cost one
	// TrailingZeros per hit rather than 64 tests.
	width := int(d.hashFuncs)
	if d.kind == DirectAddressing {
		width = 1
	}
	vecIndices := make([]uint64, width)

	for _, h := range hashes {
		switch d.kind {
		case InterleavedBloomFilter:
			for i := uint8(0); i < d.hashFuncs; i++ {
				vecIndices[i] = d.hashToIndex(d.preCalc[i] * h)
			}
		case DirectAddressing:
			if h >= d.blocks {
				continue
			}
			vecIndices[0] = h * d.blockBitSize
		}

		for binNo := uint64(0); binNo < uint64(d.bins); binNo += 64 {
			tmp := d.vec.GetInt(vecIndices[0], 64)
			for i := 1; i < len(vecIndices); i++ {
				tmp &= d.vec.GetInt(vecIndices[i], 64)
			}

			if tmp != 1<<63 {
				bin := binNo
				for tmp > 0 {
					step := uint64(bits.TrailingZeros64(tmp))
					bin += step
					tmp >>= step + 1
					counts[bin]++
					bin++
				}
			} else {
				counts[binNo+63]++
			}

			for i := range vecIndices {
				vecIndices[i] += 64
			}
		}
	}
	return nil
}

// Select answers "which bins contain this query": selected[b] is true
// iff at least threshold of the query's k-mers are present in bin b.
// selected must have exactly Bins() entries. A threshold of zero selects
// every bin regardless of the text.
func (d *Directory) Select(selected []bool, text []byte, threshold uint32) error {
	if len(selected) != int(d.bins) {
		return fmt.Errorf("%w: selected has %d entries for %d bins", ErrConfig, len(selected), d.bins)
	}

	counts := make([]uint32, d.bins)
	if err := d.Count(counts, text); err != nil {
		return err
	}
	for i, c := range counts {
		selected[i] = c >= threshold
	}
	return nil
}
