package vsa

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/hyperjump/hdkg/internal/kgerr"
)

// HyperVec is an immutable bipolar vector packed one bit per component
// (1 = +1, 0 = -1). Bit i lives in word i/64 at position i%64. Bits past the
// dimension are always zero.
type HyperVec struct {
	dim   Dimension
	words []uint64
}

// FromWords builds a vector from packed words. The slice is copied and the
// tail bits are cleared.
func FromWords(dim Dimension, words []uint64) (HyperVec, error) {
	if err := dim.Validate(); err != nil {
		return HyperVec{}, err
	}
	if len(words) != dim.Words() {
		return HyperVec{}, kgerr.New("vsa.FromWords", kgerr.ErrDimensionMismatch,
			fmt.Errorf("expected %d words for dimension %d, got %d", dim.Words(), dim, len(words)))
	}
	w := make([]uint64, len(words))
	copy(w, words)
	w[len(w)-1] &= dim.tailMask()
	return HyperVec{dim: dim, words: w}, nil
}

// FromBytes decodes the little-endian form produced by Bytes.
func FromBytes(dim Dimension, b []byte) (HyperVec, error) {
	if err := dim.Validate(); err != nil {
		return HyperVec{}, err
	}
	if len(b) != dim.Bytes() {
		return HyperVec{}, kgerr.New("vsa.FromBytes", kgerr.ErrDimensionMismatch,
			fmt.Errorf("expected %d bytes for dimension %d, got %d", dim.Bytes(), dim, len(b)))
	}
	w := make([]uint64, dim.Words())
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	w[len(w)-1] &= dim.tailMask()
	return HyperVec{dim: dim, words: w}, nil
}

func newZero(dim Dimension) HyperVec {
	return HyperVec{dim: dim, words: make([]uint64, dim.Words())}
}

// Dim returns the vector width.
func (v HyperVec) Dim() Dimension { return v.dim }

// IsZero reports whether v is the zero value (no dimension).
func (v HyperVec) IsZero() bool { return v.dim == 0 }

// Bit reports whether component i is +1.
func (v HyperVec) Bit(i int) bool {
	return v.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (v HyperVec) setBit(i int) {
	v.words[i/64] |= 1 << (uint(i) % 64)
}

// Words returns a copy of the packed words.
func (v HyperVec) Words() []uint64 {
	w := make([]uint64, len(v.words))
	copy(w, v.words)
	return w
}

// Bytes returns the packed little-endian encoding used for persistence.
func (v HyperVec) Bytes() []byte {
	b := make([]byte, len(v.words)*8)
	for i, w := range v.words {
		binary.LittleEndian.PutUint64(b[i*8:], w)
	}
	return b
}

// OnesCount returns the number of +1 components.
func (v HyperVec) OnesCount() int {
	n := 0
	for _, w := range v.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Equal reports whether a and b have the same width and components.
func (v HyperVec) Equal(o HyperVec) bool {
	if v.dim != o.dim || len(v.words) != len(o.words) {
		return false
	}
	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Hamming counts differing components. Widths must already match.
func hamming(a, b HyperVec) int {
	n := 0
	for i := range a.words {
		n += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return n
}

// HammingDistance returns the number of differing components of two
// equal-width vectors, or -1 when the widths differ.
func HammingDistance(a, b HyperVec) int {
	if a.dim != b.dim {
		return -1
	}
	return hamming(a, b)
}
