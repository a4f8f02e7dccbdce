// Package vector provides approximate nearest-neighbour search over
// hypervectors, keyed by the symbol each vector stands for.
package vector

import (
	"context"
	"slices"

	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// Kind tells apart the entries one symbol can own.
type Kind uint8

const (
	// KindAtomic is a symbol's own item-memory vector.
	KindAtomic Kind = iota
	// KindComposite is the folded edge vector of a subject.
	KindComposite
)

func (k Kind) String() string {
	if k == KindComposite {
		return "composite"
	}
	return "atomic"
}

// Key identifies one index entry.
type Key struct {
	Symbol symbol.Symbol
	Kind   Kind
}

// Index stores vectors and answers top-k similarity queries. A symbol appears
// at most once in any result, scored by its best entry.
type Index interface {
	// Upsert adds or replaces the entry for key.
	Upsert(key Key, v vsa.HyperVec) error
	// Search returns at most k results ordered by descending score, ties by
	// ascending symbol. It fails with kgerr.ErrIndexUnavailable when empty.
	Search(ctx context.Context, query vsa.HyperVec, k int) ([]Result, error)
	// Len returns the number of live entries.
	Len() int
	Type() string
	Close() error
}

// Result is one search hit. Score is 1 - hamming/dim.
type Result struct {
	Symbol symbol.Symbol `json:"symbol"`
	Score  float64       `json:"score"`
	Kind   Kind          `json:"-"`
}

func score(dim vsa.Dimension, distance int) float64 {
	return 1 - float64(distance)/float64(dim)
}

// rank keeps each symbol's best hit, orders the survivors and truncates to k.
func rank(hits []Result, k int) []Result {
	best := make(map[symbol.Symbol]int, len(hits))
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if i, ok := best[h.Symbol]; ok {
			if h.Score > out[i].Score {
				out[i] = h
			}
			continue
		}
		best[h.Symbol] = len(out)
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Symbol < b.Symbol:
			return -1
		case a.Symbol > b.Symbol:
			return 1
		}
		return 0
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
