package directory

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"bindir.lopezb.com/internal/binning/bitvec"
)

// ResizeBins grows the directory to newBins bins, preserving every bit
// already set. Shrinking is rejected: bits of dropped bins would have to
// be unset one by one and the caller is better served by Clear.
//
// When the new bin count still fits in the current padding (the per-block
// word count is unchanged) only the bookkeeping changes. Otherwise every
// block gets wider, which moves every block's bit offset; the old payload
// is spilled to a temporary file and re-read block by block into a fresh
// vector. The old vector stays in place until the copy is complete, so
// peak memory is the old and the new vector plus one block, and a failed
// resize leaves the directory unchanged. The temporary file honours
// TMPDIR.
func (d *Directory) ResizeBins(newBins uint32) error {
	if newBins < d.bins {
		return fmt.Errorf("%w: cannot shrink from %d to %d bins", ErrConfig, d.bins, newBins)
	}
	if newBins > MaxBins {
		return fmt.Errorf("%w: %d bins (supported range 1..%d)", ErrConfig, newBins, MaxBins)
	}
	if newBins == d.bins {
		return nil
	}

	newBinWidth := (uint64(newBins) + 63) / 64
	if newBinWidth == d.binWidth {
		d.bins = newBins
		return nil
	}

	newBlockBitSize := newBinWidth * 64
	newBits := d.blocks * newBlockBitSize
	if newBits > MaxBits {
		return fmt.Errorf("%w: %d bits exceeds the supported maximum of %d", ErrResource, newBits, MaxBits)
	}

	tmp, err := os.CreateTemp("", "bindir-resize-*")
	if err != nil {
		return fmt.Errorf("%w: creating spill file: %v", ErrIO, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := d.vec.WriteTo(tmp); err != nil {
		return fmt.Errorf("%w: spilling payload: %v", ErrIO, err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return fmt.Errorf("%w: rewinding spill file: %v", ErrIO, err)
	}

	wide := bitvec.New(newBits)
	buf := make([]byte, d.binWidth*8)
	for block := uint64(0); block < d.blocks; block++ {
		if _, err := io.ReadFull(tmp, buf); err != nil {
			return fmt.Errorf("%w: reading spilled block %d: %v", ErrIO, block, err)
		}
		base := block * newBlockBitSize
		for w := uint64(0); w < d.binWidth; w++ {
			word := binary.LittleEndian.Uint64(buf[w*8:])
			if word != 0 {
				wide.SetInt(base+w*64, word, 64)
			}
		}
	}

	d.bins = newBins
	d.bits = newBits
	d.vec = wide
	d.initGeometry()
	return nil
}
