package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/storage"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vector"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// AddTriple records (s, p, o) and folds bind(p, o) into the composite of s.
// It reports false for a triple that is already present, which changes
// nothing. On error the engine is left exactly as it was.
func (e *Engine) AddTriple(ctx context.Context, s, p, o symbol.Symbol) (added bool, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("add_triple", start, err) }()

	t := symbol.Triple{Subject: s, Predicate: p, Object: o}
	if !t.Valid() {
		return false, kgerr.New("engine.AddTriple", kgerr.ErrInvalidSymbol, nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph.Contains(t) {
		e.metrics.TripleAdded(false)
		return false, nil
	}

	var vecs [3]vsa.HyperVec
	for i, sym := range t.Symbols() {
		v, err := e.memory.Peek(sym)
		if err != nil {
			return false, err
		}
		vecs[i] = v
	}

	plan, err := e.graph.Plan(t, vecs[1], vecs[2])
	if err != nil {
		return false, err
	}

	if e.store != nil {
		m := storage.Mutation{
			Triple: t,
			Composite: storage.CompositeRecord{
				Subject: s,
				Vector:  plan.Composite.Vector.Bytes(),
				Edges:   plan.Composite.Edges,
			},
		}
		seen := make(map[symbol.Symbol]bool, 3)
		for i, sym := range t.Symbols() {
			if seen[sym] {
				continue
			}
			seen[sym] = true
			m.Symbols = append(m.Symbols, storage.SymbolRecord{Symbol: sym, Vector: vecs[i].Bytes()})
		}
		if err := e.store.Apply(ctx, m); err != nil {
			return false, kgerr.New("engine.AddTriple", kgerr.ErrPersistenceFailure, err)
		}
	}

	// Nothing below can fail: the vectors were derived above and the index
	// accepts any vector of the engine's width.
	for _, sym := range t.Symbols() {
		if _, err := e.memory.GetOrCreate(sym); err != nil {
			return false, err
		}
	}
	e.graph.Commit(plan)
	if err := e.index.Upsert(vector.Key{Symbol: s, Kind: vector.KindComposite}, plan.Composite.Vector); err != nil {
		return false, err
	}

	e.metrics.TripleAdded(true)
	e.metrics.SetSizes(e.memory.Len(), e.graph.Len())
	e.logger.Debug("triple added",
		zap.Uint64("subject", s.Uint64()),
		zap.Uint64("predicate", p.Uint64()),
		zap.Uint64("object", o.Uint64()),
		zap.Int("edges", plan.Composite.Edges),
	)
	return true, nil
}

// AddTriples adds each triple in order and returns how many were new. It
// stops at the first error.
func (e *Engine) AddTriples(ctx context.Context, triples []symbol.Triple) (int, error) {
	added := 0
	for _, t := range triples {
		ok, err := e.AddTriple(ctx, t.Subject, t.Predicate, t.Object)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}
