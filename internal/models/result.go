package models

import (
	"github.com/hyperjump/hdkg/internal/vector"
)

// SearchResult is one ranked symbol.
type SearchResult struct {
	Rank   int     `json:"rank"`
	Symbol uint64  `json:"symbol"`
	Score  float64 `json:"score"`
}

// SearchResponse is the response for a similarity query.
type SearchResponse struct {
	Seeds     []uint64        `json:"seeds"`
	Results   []*SearchResult `json:"results"`
	QueryTime int64           `json:"query_time_ms"`
}

// NewSearchResults numbers index hits from 1.
func NewSearchResults(hits []vector.Result) []*SearchResult {
	out := make([]*SearchResult, len(hits))
	for i, h := range hits {
		out[i] = &SearchResult{Rank: i + 1, Symbol: h.Symbol.Uint64(), Score: h.Score}
	}
	return out
}
