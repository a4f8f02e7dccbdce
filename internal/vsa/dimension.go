// Package vsa implements binary bipolar hypervectors and the algebra over
// them: bind, bundle, permute and similarity.
package vsa

import (
	"fmt"

	"github.com/hyperjump/hdkg/internal/kgerr"
)

// Dimension is the number of components in every vector of one engine.
type Dimension int

const (
	// DefaultDimension gives good capacity for knowledge graphs of realistic size.
	DefaultDimension Dimension = 10000
	// TestDimension keeps unit tests fast.
	TestDimension Dimension = 1000
)

// Encoding names the vector representation. Only bipolar is implemented.
const Encoding = "Bipolar"

// Validate rejects non-positive widths.
func (d Dimension) Validate() error {
	if d <= 0 {
		return kgerr.New("vsa.Dimension", kgerr.ErrDimensionMismatch, fmt.Errorf("dimension must be positive, got %d", d))
	}
	return nil
}

// Words is the number of uint64 words a vector of this width occupies.
func (d Dimension) Words() int { return (int(d) + 63) / 64 }

// Bytes is the size of the packed little-endian representation.
func (d Dimension) Bytes() int { return d.Words() * 8 }

// tailMask clears the unused high bits of the last word.
func (d Dimension) tailMask() uint64 {
	if r := int(d) % 64; r != 0 {
		return (uint64(1) << r) - 1
	}
	return ^uint64(0)
}
