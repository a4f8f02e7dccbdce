package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/hdkg/internal/symbol"
)

func openTest(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "sub", DatabaseFile))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_Meta(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()

	if _, ok, err := store.GetMeta(ctx, MetaDimension); err != nil || ok {
		t.Fatalf("expected no dimension, got ok=%v err=%v", ok, err)
	}
	if err := store.SetMeta(ctx, MetaDimension, "8000"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetMeta(ctx, MetaDimension, "10000"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := store.GetMeta(ctx, MetaDimension)
	if err != nil || !ok || v != "10000" {
		t.Errorf("GetMeta = %q, %v, %v", v, ok, err)
	}
}

func TestSQLiteStorage_Apply(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()

	big := symbol.Symbol(1 << 63)
	m := Mutation{
		Triple: symbol.Triple{Subject: big, Predicate: 2, Object: 3},
		Symbols: []SymbolRecord{
			{Symbol: big, Vector: []byte{1}},
			{Symbol: 2, Vector: []byte{2}},
			{Symbol: 3, Vector: []byte{3}},
		},
		Composite: CompositeRecord{Subject: big, Vector: []byte{9}, Edges: 1},
	}
	if err := store.Apply(ctx, m); err != nil {
		t.Fatal(err)
	}

	second := Mutation{
		Triple:    symbol.Triple{Subject: big, Predicate: 2, Object: 4},
		Symbols:   []SymbolRecord{{Symbol: 2, Vector: []byte{2}}, {Symbol: 4, Vector: []byte{4}}},
		Composite: CompositeRecord{Subject: big, Vector: []byte{8}, Edges: 2},
	}
	if err := store.Apply(ctx, second); err != nil {
		t.Fatal(err)
	}

	triples, err := store.ListTriples(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(triples) != 2 || triples[0] != m.Triple || triples[1] != second.Triple {
		t.Errorf("ListTriples = %v", triples)
	}

	var syms []symbol.Symbol
	if err := store.ForEachSymbol(ctx, func(r SymbolRecord) error {
		syms = append(syms, r.Symbol)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(syms) != 4 {
		t.Errorf("expected 4 symbols, got %v", syms)
	}

	var comps []CompositeRecord
	_ = store.ForEachComposite(ctx, func(r CompositeRecord) error {
		comps = append(comps, r)
		return nil
	})
	if len(comps) != 1 || comps[0].Subject != big || comps[0].Edges != 2 || comps[0].Vector[0] != 8 {
		t.Errorf("composites = %+v", comps)
	}

	if n, _ := store.CountTriples(ctx); n != 2 {
		t.Errorf("CountTriples = %d", n)
	}
	if n, _ := store.CountSymbols(ctx); n != 4 {
		t.Errorf("CountSymbols = %d", n)
	}
}

func TestSQLiteStorage_ApplyIsAtomic(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()

	m := Mutation{
		Triple:    symbol.Triple{Subject: 1, Predicate: 2, Object: 3},
		Symbols:   []SymbolRecord{{Symbol: 1, Vector: []byte{1}}},
		Composite: CompositeRecord{Subject: 1, Vector: []byte{1}, Edges: 1},
	}
	if err := store.Apply(ctx, m); err != nil {
		t.Fatal(err)
	}

	// The duplicate triple violates the unique constraint, so the new symbol
	// in the same mutation must not be written either.
	dup := m
	dup.Symbols = []SymbolRecord{{Symbol: 7, Vector: []byte{7}}}
	if err := store.Apply(ctx, dup); err == nil {
		t.Fatal("expected duplicate triple to fail")
	}
	if n, _ := store.CountSymbols(ctx); n != 1 {
		t.Errorf("symbol from failed mutation was persisted: %d symbols", n)
	}
}

func TestSQLiteStorage_ForEachStops(t *testing.T) {
	store := openTest(t)
	ctx := context.Background()
	_ = store.Apply(ctx, Mutation{
		Triple:    symbol.Triple{Subject: 1, Predicate: 2, Object: 3},
		Symbols:   []SymbolRecord{{Symbol: 1, Vector: []byte{1}}, {Symbol: 2, Vector: []byte{2}}},
		Composite: CompositeRecord{Subject: 1, Vector: []byte{1}, Edges: 1},
	})

	stop := errors.New("stop")
	calls := 0
	err := store.ForEachSymbol(ctx, func(SymbolRecord) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err=%v calls=%d", err, calls)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatal("empty dir should not hold a database")
	}
	store, err := OpenDataDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if !Exists(dir) {
		t.Error("database should exist after OpenDataDir")
	}
}
