// Package kmer produces the 64-bit hashes of all overlapping k-mers of a
// DNA text.
//
// The hash is the numeric value of the window in base 4 under the 2-bit
// encoding A=0, C=1, G=2, T=3, which is a perfect hash for DNA k-mers:
// two windows collide iff they are the same string. Because the encoding
// is positional, the hash rolls in O(1) per base:
//
//	next = ((prev << 2) | code(base)) & mask
//
// where mask keeps the low 2k bits. For k = 32 the window fills the whole
// word and the mask degenerates to all ones.
//
// The hasher is a finite, restartable sequence: Init primes the first
// k-1 bases, every Next consumes one base and yields one hash, and a text
// of length L produces exactly max(0, L-k+1) hashes in textual order.
// Re-running over identical input yields identical hashes. The hasher
// borrows the text; it must not be mutated while hashing.
//
// Inputs must be resolved to {A,C,G,T} (upper or lower case) before
// hashing. Ambiguous IUPAC bases are the caller's problem; RandomizeN is
// the standard way to make them disappear.
package kmer

import (
	"errors"
	"fmt"
	"math/rand"
)

// MaxK is the largest supported window length: 32 bases of 2 bits each
// fill a 64-bit hash exactly.
const MaxK = 32

var errWindow = errors.New("kmer: window length out of range")

// Shape is a rolling hasher over a fixed-length ungapped window.
type Shape struct {
	k    int
	mask uint64
	hash uint64
	text []byte
	next int
}

// New returns a hasher for windows of length k, 1 <= k <= 32.
func New(k int) (*Shape, error) {
	s := &Shape{}
	if err := s.Resize(k); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize sets the window length and resets any hashing state.
func (s *Shape) Resize(k int) error {
	if k < 1 || k > MaxK {
		return fmt.Errorf("%w: %d", errWindow, k)
	}
	s.k = k
	if k == MaxK {
		s.mask = ^uint64(0)
	} else {
		s.mask = 1<<(2*k) - 1
	}
	s.text = nil
	s.hash = 0
	s.next = 0
	return nil
}

// K returns the window length.
func (s *Shape) K() int {
	return s.k
}

// Init primes the rolling state with the first k-1 bases of text. After
// Init, each Next call consumes one base and returns the hash of the
// window ending at that base.
func (s *Shape) Init(text []byte) error {
	s.text = text
	s.hash = 0
	s.next = 0

	prime := s.k - 1
	if len(text) < prime {
		prime = len(text)
	}
	for s.next < prime {
		code, ok := encode(text[s.next])
		if !ok {
			return fmt.Errorf("kmer: unresolved base %q at offset %d", text[s.next], s.next)
		}
		s.hash = (s.hash<<2 | code) & s.mask
		s.next++
	}
	return nil
}

// Next advances the window one base and returns its hash. ok is false once
// the text is exhausted; err reports a base outside {A,C,G,T,a,c,g,t}.
func (s *Shape) Next() (hash uint64, ok bool, err error) {
	if s.next >= len(s.text) {
		return 0, false, nil
	}
	code, valid := encode(s.text[s.next])
	if !valid {
		return 0, false, fmt.Errorf("kmer: unresolved base %q at offset %d", s.text[s.next], s.next)
	}
	s.hash = (s.hash<<2 | code) & s.mask
	s.next++
	return s.hash, true, nil
}

// Hashes returns the hashes of all overlapping k-mers of text eagerly.
// A text shorter than k yields an empty slice.
func (s *Shape) Hashes(text []byte) ([]uint64, error) {
	if len(text) < s.k {
		return nil, nil
	}
	out := make([]uint64, 0, len(text)-s.k+1)

	if err := s.Init(text); err != nil {
		return nil, err
	}
	for {
		h, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, h)
	}
}

// Hashes is a convenience for one-shot hashing without holding a Shape.
func Hashes(k int, text []byte) ([]uint64, error) {
	s, err := New(k)
	if err != nil {
		return nil, err
	}
	return s.Hashes(text)
}

// RandomizeN replaces every byte of seq that is not an A, C, G or T
// (either case) with a random base drawn from rng, in place. With a seeded
// rng the substitution is deterministic, which keeps index builds
// reproducible.
func RandomizeN(seq []byte, rng *rand.Rand) {
	const bases = "ACGT"
	for i, b := range seq {
		if _, ok := encode(b); !ok {
			seq[i] = bases[rng.Intn(4)]
		}
	}
}

func encode(b byte) (uint64, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't':
		return 3, true
	}
	return 0, false
}
