package directory

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Filter file header, 32 bytes little endian. The magic doubles as the
// layout tag. The checksum is the low 32 bits of xxhash64 over the
// header with the checksum field zeroed, so a flipped header byte is
// caught before any geometry derived from it is trusted.
//
//	offset  size  field
//	     0     4  magic "IBF1" | "IDA1"
//	     4     1  hash functions (0 for direct addressing)
//	     5     1  k-mer size
//	     6     2  reserved, zero
//	     8     4  bins
//	    12     4  header checksum
//	    16     8  vector bits
//	    24     8  block bit size
const headerSize = 32

var (
	magicIBF = [4]byte{'I', 'B', 'F', '1'}
	magicDA  = [4]byte{'I', 'D', 'A', '1'}
)

// fileHeader is a flyweight over a 32-byte header buffer. Accessors
// read and write in place; nothing is cached.
type fileHeader []byte

func newFileHeader() fileHeader { return make(fileHeader, headerSize) }

func (h fileHeader) magic() [4]byte     { return [4]byte(h[0:4]) }
func (h fileHeader) setMagic(m [4]byte) { copy(h[0:4], m[:]) }

func (h fileHeader) hashFuncs() uint8     { return h[4] }
func (h fileHeader) setHashFuncs(v uint8) { h[4] = v }

func (h fileHeader) kmerSize() uint8     { return h[5] }
func (h fileHeader) setKmerSize(v uint8) { h[5] = v }

func (h fileHeader) reserved() uint16 { return binary.LittleEndian.Uint16(h[6:8]) }

func (h fileHeader) bins() uint32     { return binary.LittleEndian.Uint32(h[8:12]) }
func (h fileHeader) setBins(v uint32) { binary.LittleEndian.PutUint32(h[8:12], v) }

func (h fileHeader) checksum() uint32     { return binary.LittleEndian.Uint32(h[12:16]) }
func (h fileHeader) setChecksum(v uint32) { binary.LittleEndian.PutUint32(h[12:16], v) }

func (h fileHeader) bits() uint64     { return binary.LittleEndian.Uint64(h[16:24]) }
func (h fileHeader) setBits(v uint64) { binary.LittleEndian.PutUint64(h[16:24], v) }

func (h fileHeader) blockBitSize() uint64     { return binary.LittleEndian.Uint64(h[24:32]) }
func (h fileHeader) setBlockBitSize(v uint64) { binary.LittleEndian.PutUint64(h[24:32], v) }

// computeChecksum hashes the header with the checksum field zeroed.
func (h fileHeader) computeChecksum() uint32 {
	var scratch [headerSize]byte
	copy(scratch[:], h)
	binary.LittleEndian.PutUint32(scratch[12:16], 0)
	return uint32(xxhash.Sum64(scratch[:]))
}

func (h fileHeader) seal()        { h.setChecksum(h.computeChecksum()) }
func (h fileHeader) verify() bool { return h.checksum() == h.computeChecksum() }

func (h fileHeader) kind() (Kind, bool) {
	switch h.magic() {
	case magicIBF:
		return InterleavedBloomFilter, true
	case magicDA:
		return DirectAddressing, true
	}
	return 0, false
}
