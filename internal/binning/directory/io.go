package directory

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Save writes the directory to path: the 32-byte sealed header followed
// by the raw payload, ceil(bits/8) bytes little endian. The file is
// written to a sibling temp file and renamed into place, so a crashed
// save never leaves a truncated filter behind the final name.
func (d *Directory) Save(path string) error {
	hdr := newFileHeader()
	switch d.kind {
	case InterleavedBloomFilter:
		hdr.setMagic(magicIBF)
	case DirectAddressing:
		hdr.setMagic(magicDA)
	}
	hdr.setHashFuncs(d.hashFuncs)
	hdr.setKmerSize(d.kmerSize)
	hdr.setBins(d.bins)
	hdr.setBits(d.bits)
	hdr.setBlockBitSize(d.blockBitSize)
	hdr.seal()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bindir-save-*")
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(hdr); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing header to %s: %v", ErrIO, path, err)
	}
	if _, err := d.vec.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing payload to %s: %v", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: renaming into %s: %v", ErrIO, path, err)
	}
	return nil
}

// Load reads a directory saved by Save. Every header field is validated
// before the payload allocation: bad magic, a checksum mismatch,
// inconsistent geometry, or a file whose length is not exactly
// header + ceil(bits/8) all fail with ErrFormat without allocating the
// vector. A file too short to hold the header fails with ErrFormat; a
// failed payload read fails with ErrIO.
func Load(path string, logger *slog.Logger) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}

	hdr := newFileHeader()
	if _, err := io.ReadFull(f, hdr); err != nil {
		return nil, fmt.Errorf("%w: %s: header truncated", ErrFormat, path)
	}

	kind, ok := hdr.kind()
	if !ok {
		m := hdr.magic()
		return nil, fmt.Errorf("%w: %s: bad magic %q", ErrFormat, path, string(m[:]))
	}
	if !hdr.verify() {
		return nil, fmt.Errorf("%w: %s: header checksum mismatch", ErrFormat, path)
	}
	if hdr.reserved() != 0 {
		return nil, fmt.Errorf("%w: %s: nonzero reserved field", ErrFormat, path)
	}

	if want := (uint64(hdr.bins()) + 63) / 64 * 64; hdr.blockBitSize() != want {
		return nil, fmt.Errorf("%w: %s: block size %d does not match %d bins",
			ErrFormat, path, hdr.blockBitSize(), hdr.bins())
	}

	want := int64(headerSize) + int64((hdr.bits()+7)/8)
	if info.Size() != want {
		return nil, fmt.Errorf("%w: %s: file is %d bytes, want %d", ErrFormat, path, info.Size(), want)
	}

	cfg := Config{
		Kind:      kind,
		Bins:      hdr.bins(),
		HashFuncs: hdr.hashFuncs(),
		KmerSize:  hdr.kmerSize(),
		Bits:      hdr.bits(),
		Logger:    logger,
	}
	d, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	if _, err := d.vec.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%w: reading payload of %s: %v", ErrIO, path, err)
	}
	return d, nil
}

// Fingerprint returns the xxhash64 of the payload bits. Two directories
// with identical contents report identical fingerprints, which makes it
// cheap to assert that a save/load round-trip or a replicated build
// produced the same filter.
func (d *Directory) Fingerprint() uint64 {
	h := xxhash.New()
	d.vec.WriteTo(h)
	return h.Sum64()
}
