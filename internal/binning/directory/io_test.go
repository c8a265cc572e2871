package directory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func buildSample(t *testing.T) *Directory {
	t.Helper()
	d := mustNew(t, Config{
		Kind: InterleavedBloomFilter, Bins: 8, HashFuncs: 3, KmerSize: 14, Bits: 1 << 14,
	})
	if err := d.InsertKmer([]byte("ACGTACGTACGTACGTACGT"), 1); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertKmer([]byte("GATTACAGATTACAGATTACA"), 6); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	d := buildSample(t)
	path := filepath.Join(t.TempDir(), "sample.bd")

	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Kind() != d.Kind() || loaded.Bins() != d.Bins() ||
		loaded.HashFuncs() != d.HashFuncs() || loaded.KmerSize() != d.KmerSize() ||
		loaded.Bits() != d.Bits() || loaded.BlockBitSize() != d.BlockBitSize() {
		t.Fatal("loaded parameters differ from saved parameters")
	}
	if loaded.Fingerprint() != d.Fingerprint() {
		t.Fatal("payload fingerprint changed across a save/load round-trip")
	}

	seq := []byte("ACGTACGTACGTACGTACGT")
	want := make([]uint32, 8)
	got := make([]uint32, 8)
	if err := d.Count(want, seq); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Count(got, seq); err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("counts[%d]: loaded %d, original %d", i, got[i], want[i])
		}
	}
}

func TestSaveLoad_DirectAddressing(t *testing.T) {
	d := mustNew(t, Config{Kind: DirectAddressing, Bins: 4, KmerSize: 3, Bits: 4096})
	if err := d.InsertKmer([]byte("ACGT"), 2); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "da.bd")
	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Kind() != DirectAddressing || loaded.HashFuncs() != 0 {
		t.Errorf("loaded kind=%v h=%d", loaded.Kind(), loaded.HashFuncs())
	}
	if loaded.Fingerprint() != d.Fingerprint() {
		t.Error("fingerprint changed across round-trip")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bd"), nil)
	if !errors.Is(err, ErrIO) {
		t.Errorf("missing file: err = %v, want ErrIO", err)
	}
}

func TestLoad_BadMagic(t *testing.T) {
	d := buildSample(t)
	path := filepath.Join(t.TempDir(), "sample.bd")
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[0] = 'X'
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("bad magic: err = %v, want ErrFormat", err)
	}
}

func TestLoad_CorruptHeader(t *testing.T) {
	d := buildSample(t)
	path := filepath.Join(t.TempDir(), "sample.bd")
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[8]++ // bins field no longer matches the checksum
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("corrupt header: err = %v, want ErrFormat", err)
	}
}

func TestLoad_Truncated(t *testing.T) {
	d := buildSample(t)
	path := filepath.Join(t.TempDir(), "sample.bd")
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw[:len(raw)-7], 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("truncated payload: err = %v, want ErrFormat", err)
	}
}

func TestLoad_TrailingGarbage(t *testing.T) {
	d := buildSample(t)
	path := filepath.Join(t.TempDir(), "sample.bd")
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("junk")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := Load(path, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("oversized file: err = %v, want ErrFormat", err)
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := buildSample(t)
	b := buildSample(t)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical builds produced different fingerprints")
	}

	if err := b.InsertKmer([]byte("TTTTGGGGCCCCAAAATTTT"), 3); err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different contents produced the same fingerprint")
	}
}
