// Package fasta reads DNA reference sequences in FASTA format, plain or
// gzip compressed. The reader is line oriented and tolerant of CRLF
// endings and multi-line sequences; records with an empty sequence are
// skipped rather than surfaced.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Record is one FASTA entry. Name is the header line without the
// leading '>' and Seq is the concatenation of its sequence lines.
type Record struct {
	Name string
	Seq  []byte
}

// Reader parses FASTA records from a stream.
type Reader struct {
	s       *bufio.Scanner
	pending string
	started bool
	closers []io.Closer
}

// NewReader parses from r. Sequence lines longer than the default
// scanner token limit are accepted up to 64 MiB.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Reader{s: s}
}

// Open reads path, transparently decompressing when the name ends in
// .gz. Close releases the underlying file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		src = gz
		closers = []io.Closer{gz, f}
	}

	r := NewReader(src)
	r.closers = closers
	return r, nil
}

// Close releases the resources of a Reader obtained from Open. It is a
// no-op for a Reader built with NewReader.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Next returns the next non-empty record. It returns io.EOF once the
// stream is exhausted and an error for malformed input, such as sequence
// data before the first header.
func (r *Reader) Next() (Record, error) {
	var rec Record
	var seq bytes.Buffer
	have := false

	flush := func() Record {
		out := Record{Name: rec.Name, Seq: append([]byte(nil), seq.Bytes()...)}
		return out
	}

	if r.pending != "" {
		rec.Name = r.pending
		r.pending = ""
		have = true
	}

	for r.s.Scan() {
		line := strings.TrimRight(r.s.Text(), "\r")
		if line == "" {
			continue
		}

		if line[0] == '>' {
			r.started = true
			name := strings.TrimSpace(line[1:])
			if have && seq.Len() > 0 {
				r.pending = name
				return flush(), nil
			}
			// A header directly following another header starts a fresh
			// record; the empty one is dropped.
			rec.Name = name
			have = true
			continue
		}

		if !r.started {
			return Record{}, fmt.Errorf("fasta: sequence data before the first header: %q", line)
		}
		seq.WriteString(line)
	}
	if err := r.s.Err(); err != nil {
		return Record{}, err
	}

	if have && seq.Len() > 0 {
		return flush(), nil
	}
	return Record{}, io.EOF
}

// ReadAll drains the reader and returns every non-empty record.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
