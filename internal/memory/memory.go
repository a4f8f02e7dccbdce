// Package memory maps symbols to their atomic hypervectors.
//
// Every symbol's vector is derived deterministically from its id, so an item
// memory only caches derivations and never has to agree with another process
// on anything but the dimension.
package memory

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

const shardCount = 32

// CreateHook runs after a symbol's vector is first stored. A non-nil error
// unstores the symbol and is returned to the caller that created it.
type CreateHook func(sym symbol.Symbol, v vsa.HyperVec) error

type shard struct {
	mu      sync.RWMutex
	vectors map[symbol.Symbol]vsa.HyperVec
}

// ItemMemory is a concurrent symbol to vector store. Lookups of existing
// symbols only take a shard read lock. Concurrent first references to one
// symbol share a single derivation and exactly one insert.
type ItemMemory struct {
	ops    *vsa.Ops
	shards [shardCount]shard
	group  singleflight.Group
	count  atomic.Int64
	logger *zap.Logger

	hooksMu sync.RWMutex
	hooks   []CreateHook
}

// Option configures an ItemMemory.
type Option func(*ItemMemory)

// WithLogger sets the logger used for creation events.
func WithLogger(l *zap.Logger) Option {
	return func(m *ItemMemory) {
		m.logger = l
	}
}

// New returns an empty item memory producing vectors with ops.
func New(ops *vsa.Ops, opts ...Option) *ItemMemory {
	m := &ItemMemory{ops: ops, logger: zap.NewNop()}
	for i := range m.shards {
		m.shards[i].vectors = make(map[symbol.Symbol]vsa.HyperVec)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ItemMemory) shardFor(sym symbol.Symbol) *shard {
	// Fibonacci hashing spreads sequential ids across shards.
	h := sym.Uint64() * 0x9E3779B97F4A7C15
	return &m.shards[h>>59]
}

// Dim returns the width of every stored vector.
func (m *ItemMemory) Dim() vsa.Dimension { return m.ops.Dim() }

// OnCreate registers a hook fired once per newly stored symbol. Hooks run on
// the goroutine that stored the symbol and must not call back into
// GetOrCreate for the same symbol.
func (m *ItemMemory) OnCreate(hook CreateHook) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Get returns the stored vector for sym without creating one.
func (m *ItemMemory) Get(sym symbol.Symbol) (vsa.HyperVec, bool) {
	s := m.shardFor(sym)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[sym]
	return v, ok
}

// Contains reports whether sym has been stored.
func (m *ItemMemory) Contains(sym symbol.Symbol) bool {
	_, ok := m.Get(sym)
	return ok
}

// Peek returns the stored vector for sym, or derives it without storing.
func (m *ItemMemory) Peek(sym symbol.Symbol) (vsa.HyperVec, error) {
	if !sym.Valid() {
		return vsa.HyperVec{}, kgerr.New("memory.Peek", kgerr.ErrInvalidSymbol, nil)
	}
	if v, ok := m.Get(sym); ok {
		return v, nil
	}
	return m.ops.EncodeSymbol(sym), nil
}

// GetOrCreate returns the vector for sym, deriving and storing it on first use.
func (m *ItemMemory) GetOrCreate(sym symbol.Symbol) (vsa.HyperVec, error) {
	if !sym.Valid() {
		return vsa.HyperVec{}, kgerr.New("memory.GetOrCreate", kgerr.ErrInvalidSymbol, nil)
	}
	if v, ok := m.Get(sym); ok {
		return v, nil
	}
	key := strconv.FormatUint(sym.Uint64(), 10)
	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		v := m.ops.EncodeSymbol(sym)
		stored, created := m.insert(sym, v)
		if created {
			if err := m.fire(sym, stored); err != nil {
				return nil, err
			}
		}
		return stored, nil
	})
	if err != nil {
		return vsa.HyperVec{}, err
	}
	return res.(vsa.HyperVec), nil
}

// Restore stores a persisted vector for sym after checking it matches the
// derivation. A mismatch means the state was written by an incompatible
// build or is corrupt.
func (m *ItemMemory) Restore(sym symbol.Symbol, v vsa.HyperVec) error {
	if !sym.Valid() {
		return kgerr.New("memory.Restore", kgerr.ErrInvalidSymbol, nil)
	}
	if v.Dim() != m.ops.Dim() {
		return kgerr.Dimension("memory.Restore", int(m.ops.Dim()), int(v.Dim()))
	}
	if !v.Equal(m.ops.EncodeSymbol(sym)) {
		return kgerr.New("memory.Restore", kgerr.ErrInitializationFailed,
			fmt.Errorf("stored vector for %s does not match its derivation", sym))
	}
	if stored, created := m.insert(sym, v); created {
		if err := m.fire(sym, stored); err != nil {
			return err
		}
	}
	return nil
}

// insert stores v unless sym is already present. It returns the vector that
// ended up stored and whether this call stored it.
func (m *ItemMemory) insert(sym symbol.Symbol, v vsa.HyperVec) (vsa.HyperVec, bool) {
	s := m.shardFor(sym)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.vectors[sym]; ok {
		return existing, false
	}
	s.vectors[sym] = v
	m.count.Add(1)
	return v, true
}

// fire runs the create hooks. If any fails, sym is unstored so the next
// GetOrCreate derives it again and reruns them.
func (m *ItemMemory) fire(sym symbol.Symbol, v vsa.HyperVec) error {
	m.hooksMu.RLock()
	hooks := slices.Clone(m.hooks)
	m.hooksMu.RUnlock()
	for _, h := range hooks {
		if err := h(sym, v); err != nil {
			m.remove(sym)
			return err
		}
	}
	m.logger.Debug("symbol created", zap.Uint64("symbol", sym.Uint64()))
	return nil
}

func (m *ItemMemory) remove(sym symbol.Symbol) {
	s := m.shardFor(sym)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vectors[sym]; ok {
		delete(s.vectors, sym)
		m.count.Add(-1)
	}
}

// Len returns the number of stored symbols.
func (m *ItemMemory) Len() int { return int(m.count.Load()) }

// Symbols returns every stored symbol in ascending order.
func (m *ItemMemory) Symbols() []symbol.Symbol {
	out := make([]symbol.Symbol, 0, m.Len())
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for sym := range s.vectors {
			out = append(out, sym)
		}
		s.mu.RUnlock()
	}
	slices.Sort(out)
	return out
}
