package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vector"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// SearchSimilar returns up to k symbols whose atomic or composite vectors are
// closest to query, best first.
func (e *Engine) SearchSimilar(ctx context.Context, query vsa.HyperVec, k int) (results []vector.Result, err error) {
	start := time.Now()
	defer func() { e.metrics.Observe("search_similar", start, err) }()
	return e.index.Search(ctx, query, k)
}

// SearchSimilarTo searches with the stored vector of sym.
func (e *Engine) SearchSimilarTo(ctx context.Context, sym symbol.Symbol, k int) ([]vector.Result, error) {
	v, ok := e.memory.Get(sym)
	if !ok {
		return nil, kgerr.New("engine.SearchSimilarTo", kgerr.ErrSymbolNotFound, fmt.Errorf("%s", sym))
	}
	return e.SearchSimilar(ctx, v, k)
}

// SearchSeeds ensures every seed has a vector, bundles them into one query
// and searches with it.
func (e *Engine) SearchSeeds(ctx context.Context, seeds []symbol.Symbol, k int) ([]vector.Result, error) {
	if len(seeds) == 0 {
		return nil, kgerr.New("engine.SearchSeeds", kgerr.ErrEmptyBundle, fmt.Errorf("no seed symbols"))
	}
	vecs := make([]vsa.HyperVec, 0, len(seeds))
	for _, s := range seeds {
		v, err := e.memory.GetOrCreate(s)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, v)
	}
	query, err := e.ops.Bundle(vecs)
	if err != nil {
		return nil, err
	}
	return e.SearchSimilar(ctx, query, k)
}

// RecoverFiller estimates the objects of (subject, predicate, ?) by unbinding
// the predicate from the subject's composite and searching with the result.
// A subject without edges falls back to its atomic vector.
func (e *Engine) RecoverFiller(ctx context.Context, subject, predicate symbol.Symbol, k int) ([]vector.Result, error) {
	if !subject.Valid() || !predicate.Valid() {
		return nil, kgerr.New("engine.RecoverFiller", kgerr.ErrInvalidSymbol, nil)
	}
	var base vsa.HyperVec
	if c, ok := e.graph.Composite(subject); ok {
		base = c.Vector
	} else {
		v, err := e.memory.GetOrCreate(subject)
		if err != nil {
			return nil, err
		}
		base = v
	}
	pv, err := e.memory.GetOrCreate(predicate)
	if err != nil {
		return nil, err
	}
	cue, err := e.ops.Unbind(base, pv)
	if err != nil {
		return nil, err
	}
	return e.SearchSimilar(ctx, cue, k)
}
