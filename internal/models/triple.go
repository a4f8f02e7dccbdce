// Package models holds the JSON shapes shared by the HTTP API, the CLI and
// triple file ingestion.
package models

import "github.com/hyperjump/hdkg/internal/symbol"

// TripleInput is one {s,p,o} record as it appears in ingest files and
// request bodies.
type TripleInput struct {
	S uint64 `json:"s"`
	P uint64 `json:"p"`
	O uint64 `json:"o"`
}

// Triple converts the record. It reports false when any field is zero.
func (t TripleInput) Triple() (symbol.Triple, bool) {
	tr := symbol.Triple{
		Subject:   symbol.Symbol(t.S),
		Predicate: symbol.Symbol(t.P),
		Object:    symbol.Symbol(t.O),
	}
	return tr, tr.Valid()
}

// AddTriplesRequest is the body of POST /api/v1/triples.
type AddTriplesRequest struct {
	Triples []TripleInput `json:"triples"`
}

// AddTriplesResponse reports how a batch was applied.
type AddTriplesResponse struct {
	Added     int `json:"added"`
	Duplicate int `json:"duplicate"`
	Skipped   int `json:"skipped"`
}
