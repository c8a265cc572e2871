package fasta

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func readAll(t *testing.T, input string) []Record {
	t.Helper()
	recs, err := NewReader(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return recs
}

func TestNext_Basic(t *testing.T) {
	recs := readAll(t, ">chr1 description\nACGT\nACGT\n>chr2\nTTTT\n")

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Name != "chr1 description" || string(recs[0].Seq) != "ACGTACGT" {
		t.Errorf("record 0 = %q %q", recs[0].Name, recs[0].Seq)
	}
	if recs[1].Name != "chr2" || string(recs[1].Seq) != "TTTT" {
		t.Errorf("record 1 = %q %q", recs[1].Name, recs[1].Seq)
	}
}

func TestNext_CRLFAndBlankLines(t *testing.T) {
	recs := readAll(t, ">a\r\nACGT\r\n\r\nGGCC\r\n")

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if string(recs[0].Seq) != "ACGTGGCC" {
		t.Errorf("seq = %q, want ACGTGGCC", recs[0].Seq)
	}
}

func TestNext_EmptyRecordSkipped(t *testing.T) {
	recs := readAll(t, ">empty\n>real\nACGT\n>trailing-empty\n")

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(recs), recs)
	}
	if recs[0].Name != "real" || string(recs[0].Seq) != "ACGT" {
		t.Errorf("record = %q %q", recs[0].Name, recs[0].Seq)
	}
}

func TestNext_DataBeforeHeader(t *testing.T) {
	_, err := NewReader(strings.NewReader("ACGT\n>late\nACGT\n")).ReadAll()
	if err == nil {
		t.Error("expected an error for sequence data before the first header")
	}
}

func TestNext_Empty(t *testing.T) {
	if _, err := NewReader(strings.NewReader("")).Next(); err != io.EOF {
		t.Errorf("empty input: err = %v, want io.EOF", err)
	}
}

func TestOpen_PlainAndGzipAgree(t *testing.T) {
	const body = ">bin0 ref\nACGTACGTACGT\nGATTACA\n>bin0 alt\nTTTTGGGG\n"
	dir := t.TempDir()

	plain := filepath.Join(dir, "ref.fna")
	if err := os.WriteFile(plain, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	zipped := filepath.Join(dir, "ref.fna.gz")
	f, err := os.Create(zipped)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, zipped} {
		r, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%s): %v", path, err)
		}
		recs, err := r.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll(%s): %v", path, err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("Close(%s): %v", path, err)
		}

		if len(recs) != 2 {
			t.Fatalf("%s: got %d records, want 2", path, len(recs))
		}
		if string(recs[0].Seq) != "ACGTACGTACGTGATTACA" || string(recs[1].Seq) != "TTTTGGGG" {
			t.Errorf("%s: sequences differ: %q %q", path, recs[0].Seq, recs[1].Seq)
		}
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.fna")); err == nil {
		t.Error("Open accepted a missing file")
	}
}

func TestOpen_CorruptGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.fna.gz")
	if err := os.WriteFile(path, []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Open accepted a corrupt gzip file")
	}
}
