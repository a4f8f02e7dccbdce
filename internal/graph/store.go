// Package graph holds the symbolic triple store and the per-subject
// composite vectors folded from each subject's edges.
package graph

import (
	"slices"
	"sync"

	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// Composite is the superposition of every bind(predicate, object) edge
// leaving one subject.
type Composite struct {
	Vector vsa.HyperVec
	Edges  int
}

// Plan is a prepared insertion. Computing a plan never mutates the store, so
// a caller can persist the plan first and discard it on failure.
type Plan struct {
	Triple    symbol.Triple
	Edge      vsa.HyperVec
	Composite Composite
	// Exists is true when the triple is already stored; committing such a
	// plan is a no-op.
	Exists bool
}

// Store is a set of triples indexed by subject, predicate and object.
type Store struct {
	ops *vsa.Ops

	mu          sync.RWMutex
	triples     []symbol.Triple
	edges       map[symbol.Triple]struct{}
	bySubject   map[symbol.Symbol][]symbol.Triple
	byPredicate map[symbol.Symbol][]symbol.Triple
	byObject    map[symbol.Symbol][]symbol.Triple
	composites  map[symbol.Symbol]Composite
}

// NewStore returns an empty store folding composites with ops.
func NewStore(ops *vsa.Ops) *Store {
	return &Store{
		ops:         ops,
		edges:       make(map[symbol.Triple]struct{}),
		bySubject:   make(map[symbol.Symbol][]symbol.Triple),
		byPredicate: make(map[symbol.Symbol][]symbol.Triple),
		byObject:    make(map[symbol.Symbol][]symbol.Triple),
		composites:  make(map[symbol.Symbol]Composite),
	}
}

// Plan prepares the insertion of t given the predicate and object vectors.
func (s *Store) Plan(t symbol.Triple, predicate, object vsa.HyperVec) (Plan, error) {
	s.mu.RLock()
	_, exists := s.edges[t]
	prev, hasPrev := s.composites[t.Subject]
	s.mu.RUnlock()

	if exists {
		return Plan{Triple: t, Exists: true, Composite: prev}, nil
	}

	edge, err := s.ops.Bind(predicate, object)
	if err != nil {
		return Plan{}, err
	}
	next := Composite{Vector: edge, Edges: 1}
	if hasPrev {
		folded, err := s.ops.Bundle([]vsa.HyperVec{prev.Vector, edge})
		if err != nil {
			return Plan{}, err
		}
		next = Composite{Vector: folded, Edges: prev.Edges + 1}
	}
	return Plan{Triple: t, Edge: edge, Composite: next}, nil
}

// Commit applies p. It reports false, changing nothing, when the triple is
// already present.
func (s *Store) Commit(p Plan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Exists {
		return false
	}
	if !s.addLocked(p.Triple) {
		return false
	}
	s.composites[p.Triple.Subject] = p.Composite
	return true
}

func (s *Store) addLocked(t symbol.Triple) bool {
	if _, ok := s.edges[t]; ok {
		return false
	}
	s.edges[t] = struct{}{}
	s.triples = append(s.triples, t)
	s.bySubject[t.Subject] = append(s.bySubject[t.Subject], t)
	s.byPredicate[t.Predicate] = append(s.byPredicate[t.Predicate], t)
	s.byObject[t.Object] = append(s.byObject[t.Object], t)
	return true
}

// Restore adds a persisted triple without folding it into a composite.
func (s *Store) Restore(t symbol.Triple) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(t)
}

// RestoreComposite installs a persisted composite for subject.
func (s *Store) RestoreComposite(subject symbol.Symbol, c Composite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composites[subject] = c
}

// Contains reports whether t is stored.
func (s *Store) Contains(t symbol.Triple) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[t]
	return ok
}

// Len returns the number of distinct triples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

// NodeCount returns the number of distinct symbols that appear in any triple.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[symbol.Symbol]struct{}, len(s.bySubject)+len(s.byObject))
	for sym := range s.bySubject {
		seen[sym] = struct{}{}
	}
	for sym := range s.byPredicate {
		seen[sym] = struct{}{}
	}
	for sym := range s.byObject {
		seen[sym] = struct{}{}
	}
	return len(seen)
}

// Triples returns every triple in insertion order.
func (s *Store) Triples() []symbol.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.triples)
}

// BySubject returns the triples whose subject is sym, in insertion order.
func (s *Store) BySubject(sym symbol.Symbol) []symbol.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.bySubject[sym])
}

// ByPredicate returns the triples whose predicate is sym.
func (s *Store) ByPredicate(sym symbol.Symbol) []symbol.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.byPredicate[sym])
}

// ByObject returns the triples whose object is sym.
func (s *Store) ByObject(sym symbol.Symbol) []symbol.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.byObject[sym])
}

// ObjectsOf returns the objects o of every (subject, predicate, o).
func (s *Store) ObjectsOf(subject, predicate symbol.Symbol) []symbol.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []symbol.Symbol
	for _, t := range s.bySubject[subject] {
		if t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// SubjectsOf returns the subjects s of every (s, predicate, object).
func (s *Store) SubjectsOf(predicate, object symbol.Symbol) []symbol.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []symbol.Symbol
	for _, t := range s.byObject[object] {
		if t.Predicate == predicate {
			out = append(out, t.Subject)
		}
	}
	return out
}

// Composite returns the folded edge vector for subject.
func (s *Store) Composite(subject symbol.Symbol) (Composite, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.composites[subject]
	return c, ok
}

// Subjects returns every symbol that has a composite, ascending.
func (s *Store) Subjects() []symbol.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]symbol.Symbol, 0, len(s.composites))
	for sym := range s.composites {
		out = append(out, sym)
	}
	slices.Sort(out)
	return out
}
