package directory

import "sync"

// Clear resets the listed bins to empty across the whole vector, so the
// bins can be repopulated with fresh references. threads workers split
// the block range into contiguous slices; each block is owned by exactly
// one worker, so the plain (non-atomic) bit clears never race.
//
// Clear must not run concurrently with inserts or queries.
func (d *Directory) Clear(bins []uint32, threads int) {
	if threads < 1 {
		threads = 1
	}
	if uint64(threads) > d.blocks {
		threads = int(d.blocks)
	}
	batch := (d.blocks + uint64(threads) - 1) / uint64(threads)

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		first := uint64(w) * batch
		if first >= d.blocks {
			break
		}
		last := first + batch
		if last > d.blocks {
			last = d.blocks
		}

		wg.Add(1)
		go func(first, last uint64) {
			defer wg.Done()
			for block := first; block < last; block++ {
				base := block * d.blockBitSize
				for _, bin := range bins {
					if bin >= d.bins {
						continue
					}
					d.vec.UnsetPos(base + uint64(bin))
				}
			}
		}(first, last)
	}
	wg.Wait()
}
