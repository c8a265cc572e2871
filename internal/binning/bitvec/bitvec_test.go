package bitvec

import (
	"bytes"
	"sync"
	"testing"
)

func TestGetInt_Aligned(t *testing.T) {
	v := New(256)
	v.words[0] = 0xDEADBEEFCAFEF00D
	v.words[1] = 0x0123456789ABCDEF

	if got := v.GetInt(0, 64); got != 0xDEADBEEFCAFEF00D {
		t.Errorf("GetInt(0, 64) = %#x, want %#x", got, uint64(0xDEADBEEFCAFEF00D))
	}
	if got := v.GetInt(64, 64); got != 0x0123456789ABCDEF {
		t.Errorf("GetInt(64, 64) = %#x, want %#x", got, uint64(0x0123456789ABCDEF))
	}
	if got := v.GetInt(0, 16); got != 0xF00D {
		t.Errorf("GetInt(0, 16) = %#x, want 0xF00D", got)
	}
}

func TestGetInt_CrossWord(t *testing.T) {
	v := New(128)
	// Bits 60..63 from word 0, bits 64..67 from word 1.
	v.words[0] = 0xA << 60
	v.words[1] = 0x5

	if got := v.GetInt(60, 8); got != 0x5A {
		t.Errorf("GetInt(60, 8) = %#x, want 0x5A", got)
	}
	// A full 64-bit unaligned window.
	if got := v.GetInt(60, 64); got != 0x5A {
		t.Errorf("GetInt(60, 64) = %#x, want 0x5A", got)
	}
}

func TestSetPos_UnsetPos(t *testing.T) {
	v := New(192)

	positions := []uint64{0, 1, 63, 64, 65, 127, 128, 191}
	for _, p := range positions {
		v.SetPos(p)
	}
	for _, p := range positions {
		if v.GetInt(p, 1) != 1 {
			t.Errorf("bit %d not set", p)
		}
	}

	// Neighbours must be untouched.
	if v.GetInt(2, 1) != 0 || v.GetInt(62, 1) != 0 || v.GetInt(66, 1) != 0 {
		t.Error("SetPos touched neighbouring bits")
	}

	v.UnsetPos(64)
	if v.GetInt(64, 1) != 0 {
		t.Error("UnsetPos(64) did not clear the bit")
	}
	if v.GetInt(63, 1) != 1 || v.GetInt(65, 1) != 1 {
		t.Error("UnsetPos touched neighbouring bits")
	}
}

func TestSetInt_RoundTrip(t *testing.T) {
	v := New(256)

	v.SetInt(0, 0xFFFF, 16)
	if got := v.GetInt(0, 16); got != 0xFFFF {
		t.Errorf("aligned SetInt: got %#x, want 0xFFFF", got)
	}

	// Cross-word write at bit 120 spans words 1 and 2.
	v.SetInt(120, 0xABCD, 16)
	if got := v.GetInt(120, 16); got != 0xABCD {
		t.Errorf("cross-word SetInt: got %#x, want 0xABCD", got)
	}

	// Overwriting must not disturb surrounding bits.
	v.SetPos(119)
	v.SetPos(136)
	v.SetInt(120, 0, 16)
	if got := v.GetInt(120, 16); got != 0 {
		t.Errorf("overwrite: got %#x, want 0", got)
	}
	if v.GetInt(119, 1) != 1 || v.GetInt(136, 1) != 1 {
		t.Error("SetInt clobbered bits outside its window")
	}
}

// TestSetPos_Concurrent drives many goroutines that all set different bits
// within the same handful of words. With an atomic OR no update may be
// lost, which is exactly the multi-inserter scenario of the interleaved
// layout: different bins, same hash block, same word.
func TestSetPos_Concurrent(t *testing.T) {
	const bits = 256
	v := New(bits)

	var wg sync.WaitGroup
	for p := uint64(0); p < bits; p++ {
		wg.Add(1)
		go func(pos uint64) {
			defer wg.Done()
			v.SetPos(pos)
		}(p)
	}
	wg.Wait()

	for p := uint64(0); p < bits; p++ {
		if v.GetInt(p, 1) != 1 {
			t.Fatalf("lost update: bit %d is 0 after concurrent SetPos", p)
		}
	}
}

func TestWriteTo_ReadFrom_RoundTrip(t *testing.T) {
	// 100 bits: payload is 13 bytes, the final word is partial.
	v := New(100)
	for _, p := range []uint64{0, 7, 8, 63, 64, 99} {
		v.SetPos(p)
	}

	var buf bytes.Buffer
	n, err := v.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != 13 {
		t.Fatalf("WriteTo wrote %d bytes, want 13", n)
	}

	loaded := New(100)
	if _, err := loaded.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	for p := uint64(0); p < 100; p++ {
		if loaded.GetInt(p, 1) != v.GetInt(p, 1) {
			t.Fatalf("bit %d differs after round-trip", p)
		}
	}
}

func TestReadFrom_ShortPayload(t *testing.T) {
	v := New(128)
	v.SetPos(5)

	// Only 3 of the required 16 bytes: the read must fail and the vector
	// must keep its previous contents.
	if _, err := v.ReadFrom(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Fatal("ReadFrom accepted a short payload")
	}
	if v.GetInt(5, 1) != 1 {
		t.Error("failed ReadFrom modified the vector")
	}
}
