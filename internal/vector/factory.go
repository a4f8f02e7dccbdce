package vector

import (
	"fmt"

	"github.com/hyperjump/hdkg/internal/vsa"
)

// IndexType selects an Index implementation.
type IndexType string

const (
	// IndexTypeHNSW is the default approximate graph index.
	IndexTypeHNSW IndexType = "hnsw"
	// IndexTypeMemory scans every entry. Exact, and fine below a few
	// thousand symbols.
	IndexTypeMemory IndexType = "memory"
)

// NewIndex creates an index of the given type for vectors of width dim.
// An empty type selects HNSW; cfg only applies to HNSW.
func NewIndex(indexType string, dim vsa.Dimension, cfg HNSWConfig) (Index, error) {
	if err := dim.Validate(); err != nil {
		return nil, err
	}
	switch IndexType(indexType) {
	case IndexTypeHNSW, "":
		return NewHNSW(dim, cfg), nil
	case IndexTypeMemory:
		return NewMemoryIndex(dim)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: hnsw, memory)", indexType)
	}
}
