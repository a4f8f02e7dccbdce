package models

import (
	"fmt"

	"github.com/hyperjump/hdkg/internal/symbol"
)

const (
	DefaultTopK = 10
	MaxTopK     = 1000
)

// SearchRequest is a seed-vector similarity query.
type SearchRequest struct {
	Seeds []uint64 `json:"seeds"`
	TopK  int      `json:"top_k,omitempty"`
}

// Validate normalizes TopK and returns the usable seeds. Zero seeds are
// dropped; an error is returned when none remain.
func (q *SearchRequest) Validate() ([]symbol.Symbol, error) {
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	seeds := make([]symbol.Symbol, 0, len(q.Seeds))
	for _, s := range q.Seeds {
		if s != 0 {
			seeds = append(seeds, symbol.Symbol(s))
		}
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no valid seed symbol IDs provided")
	}
	return seeds, nil
}
