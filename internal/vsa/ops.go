package vsa

import (
	"fmt"
	"math/bits"

	"github.com/hyperjump/hdkg/internal/kgerr"
)

// Ops performs vector algebra at one fixed dimension. It is stateless and
// safe for concurrent use.
type Ops struct {
	dim Dimension
}

// NewOps returns the algebra for vectors of width dim.
func NewOps(dim Dimension) (*Ops, error) {
	if err := dim.Validate(); err != nil {
		return nil, err
	}
	return &Ops{dim: dim}, nil
}

// Dim returns the width every operand must have.
func (o *Ops) Dim() Dimension { return o.dim }

func (o *Ops) check(op string, vs ...HyperVec) error {
	for _, v := range vs {
		if v.dim != o.dim {
			return kgerr.Dimension(op, int(o.dim), int(v.dim))
		}
	}
	return nil
}

// Bind associates two vectors (XOR). The result is dissimilar to both inputs
// and Bind(Bind(a, b), b) == a.
func (o *Ops) Bind(a, b HyperVec) (HyperVec, error) {
	if err := o.check("vsa.Bind", a, b); err != nil {
		return HyperVec{}, err
	}
	out := newZero(o.dim)
	for i := range out.words {
		out.words[i] = a.words[i] ^ b.words[i]
	}
	return out, nil
}

// Unbind recovers a filler from a bound pair. Binding is its own inverse.
func (o *Ops) Unbind(bound, key HyperVec) (HyperVec, error) {
	return o.Bind(bound, key)
}

// Bundle superposes vectors by per-component majority vote. The result stays
// similar to every input. Ties go to +1 at even positions and -1 at odd
// positions, so an even split never biases the result.
func (o *Ops) Bundle(vs []HyperVec) (HyperVec, error) {
	if len(vs) == 0 {
		return HyperVec{}, kgerr.New("vsa.Bundle", kgerr.ErrEmptyBundle, nil)
	}
	if err := o.check("vsa.Bundle", vs...); err != nil {
		return HyperVec{}, err
	}
	if len(vs) == 1 {
		return HyperVec{dim: o.dim, words: vs[0].Words()}, nil
	}

	counts := make([]int32, o.dim)
	for _, v := range vs {
		for wi, w := range v.words {
			for w != 0 {
				b := bits.TrailingZeros64(w)
				counts[wi*64+b]++
				w &= w - 1
			}
		}
	}

	n := int32(len(vs))
	out := newZero(o.dim)
	for i, ones := range counts {
		switch sum := 2*ones - n; {
		case sum > 0:
			out.setBit(i)
		case sum == 0 && i%2 == 0:
			out.setBit(i)
		}
	}
	return out, nil
}

// Permute cyclically shifts component positions by k: component i moves to
// (i+k) mod dim. Negative k shifts the other way, so Permute(Permute(v, k), -k) == v.
func (o *Ops) Permute(v HyperVec, k int) (HyperVec, error) {
	if err := o.check("vsa.Permute", v); err != nil {
		return HyperVec{}, err
	}
	d := int(o.dim)
	shift := ((k % d) + d) % d
	if shift == 0 {
		return HyperVec{dim: o.dim, words: v.Words()}, nil
	}
	out := newZero(o.dim)
	for wi, w := range v.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out.setBit((wi*64 + b + shift) % d)
			w &= w - 1
		}
	}
	return out, nil
}

// Similarity returns 1 - hamming/dim in [0, 1]: 1.0 for identical vectors and
// about 0.5 for unrelated ones.
func (o *Ops) Similarity(a, b HyperVec) (float64, error) {
	if err := o.check("vsa.Similarity", a, b); err != nil {
		return 0, err
	}
	return 1 - float64(hamming(a, b))/float64(o.dim), nil
}

// Cosine interprets components as ±1 and returns their cosine in [-1, 1].
func (o *Ops) Cosine(a, b HyperVec) (float64, error) {
	sim, err := o.Similarity(a, b)
	if err != nil {
		return 0, err
	}
	return 2*sim - 1, nil
}

// Zero returns the all -1 vector.
func (o *Ops) Zero() HyperVec { return newZero(o.dim) }

// Parse decodes a persisted vector, checking it has this width.
func (o *Ops) Parse(b []byte) (HyperVec, error) {
	if len(b) != o.dim.Bytes() {
		return HyperVec{}, kgerr.New("vsa.Parse", kgerr.ErrDimensionMismatch,
			fmt.Errorf("expected %d bytes, got %d", o.dim.Bytes(), len(b)))
	}
	return FromBytes(o.dim, b)
}
