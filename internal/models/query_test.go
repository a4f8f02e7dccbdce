package models

import (
	"testing"

	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vector"
)

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       *SearchRequest
		wantSeeds int
		wantTopK  int
		wantErr   bool
	}{
		{"no seeds", &SearchRequest{}, 0, DefaultTopK, true},
		{"only zero seeds", &SearchRequest{Seeds: []uint64{0, 0}}, 0, DefaultTopK, true},
		{"drops zero", &SearchRequest{Seeds: []uint64{0, 3}, TopK: 5}, 1, 5, false},
		{"sets default top_k", &SearchRequest{Seeds: []uint64{1}}, 1, DefaultTopK, false},
		{"caps top_k", &SearchRequest{Seeds: []uint64{1, 2}, TopK: 5000}, 2, MaxTopK, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds, err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if err.Error() != "no valid seed symbol IDs provided" {
					t.Errorf("unexpected message %q", err)
				}
				return
			}
			if len(seeds) != tt.wantSeeds {
				t.Errorf("seeds = %v", seeds)
			}
			if tt.req.TopK != tt.wantTopK {
				t.Errorf("TopK = %d, want %d", tt.req.TopK, tt.wantTopK)
			}
		})
	}
}

func TestTripleInput(t *testing.T) {
	tr, ok := TripleInput{S: 1, P: 2, O: 3}.Triple()
	if !ok || tr != (symbol.Triple{Subject: 1, Predicate: 2, Object: 3}) {
		t.Errorf("got %v %v", tr, ok)
	}
	if _, ok := (TripleInput{S: 1, P: 0, O: 3}).Triple(); ok {
		t.Error("zero predicate should be rejected")
	}
}

func TestNewSearchResults(t *testing.T) {
	got := NewSearchResults([]vector.Result{{Symbol: 4, Score: 0.9}, {Symbol: 2, Score: 0.5}})
	if len(got) != 2 || got[0].Rank != 1 || got[1].Rank != 2 || got[0].Symbol != 4 {
		t.Errorf("got %+v", got)
	}
}
