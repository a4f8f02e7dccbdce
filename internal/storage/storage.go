// Package storage persists engine state: the dimension, the symbols that
// appear in triples, the triples themselves and each subject's composite.
package storage

import (
	"context"

	"github.com/hyperjump/hdkg/internal/symbol"
)

// Meta keys.
const (
	MetaDimension     = "dimension"
	MetaFormatVersion = "format_version"
	MetaEncoding      = "encoding"
)

// FormatVersion identifies the on-disk layout and vector derivation.
const FormatVersion = "1"

// SymbolRecord is a persisted item-memory entry.
type SymbolRecord struct {
	Symbol symbol.Symbol
	Vector []byte
}

// CompositeRecord is a persisted subject composite.
type CompositeRecord struct {
	Subject symbol.Symbol
	Vector  []byte
	Edges   int
}

// Mutation is everything one accepted triple changes. It is written
// atomically or not at all.
type Mutation struct {
	Triple    symbol.Triple
	Symbols   []SymbolRecord
	Composite CompositeRecord
}

// Storage defines engine persistence operations.
type Storage interface {
	// Meta operations
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error

	// Apply writes a mutation in one transaction.
	Apply(ctx context.Context, m Mutation) error

	// Load operations, in the order the engine restores them.
	ForEachSymbol(ctx context.Context, fn func(SymbolRecord) error) error
	ListTriples(ctx context.Context) ([]symbol.Triple, error)
	ForEachComposite(ctx context.Context, fn func(CompositeRecord) error) error

	// Stats
	CountTriples(ctx context.Context) (int64, error)
	CountSymbols(ctx context.Context) (int64, error)

	Path() string
	Close() error
}
