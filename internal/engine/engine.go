// Package engine ties item memory, the graph store, the similarity index and
// optional SQLite persistence into one knowledge engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/graph"
	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/memory"
	"github.com/hyperjump/hdkg/internal/metrics"
	"github.com/hyperjump/hdkg/internal/storage"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vector"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// Config selects the vector width, index and storage location.
type Config struct {
	// Dimension of 0 uses the persisted dimension, or vsa.DefaultDimension
	// for a fresh engine.
	Dimension vsa.Dimension
	// DataDir enables persistence when non-empty.
	DataDir   string
	IndexType string
	HNSW      vector.HNSWConfig
}

// Engine is safe for concurrent use. Mutations are serialised; searches only
// take the index read lock.
type Engine struct {
	cfg     Config
	ops     *vsa.Ops
	memory  *memory.ItemMemory
	graph   *graph.Store
	index   vector.Index
	store   storage.Storage
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithStorage uses s instead of opening a database under Config.DataDir.
// The engine takes ownership and closes s.
func WithStorage(s storage.Storage) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// New builds an engine, restoring persisted state when a data directory
// holds any.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil && cfg.DataDir != "" {
		store, err := storage.OpenDataDir(cfg.DataDir)
		if err != nil {
			return nil, kgerr.New("engine.New", kgerr.ErrInitializationFailed, err)
		}
		e.store = store
	}

	dim, err := e.resolveDimension(ctx)
	if err != nil {
		e.closeStore()
		return nil, err
	}
	e.cfg.Dimension = dim

	ops, err := vsa.NewOps(dim)
	if err != nil {
		e.closeStore()
		return nil, err
	}
	idx, err := vector.NewIndex(cfg.IndexType, dim, cfg.HNSW)
	if err != nil {
		e.closeStore()
		return nil, kgerr.New("engine.New", kgerr.ErrInitializationFailed, err)
	}
	e.ops = ops
	e.index = idx
	e.graph = graph.NewStore(ops)
	e.memory = memory.New(ops, memory.WithLogger(e.logger))
	e.memory.OnCreate(e.indexSymbol)

	if e.store != nil {
		if err := e.load(ctx); err != nil {
			e.closeStore()
			return nil, err
		}
	}

	e.metrics.SetSizes(e.memory.Len(), e.graph.Len())
	e.logger.Info("engine ready",
		zap.Int("dimension", int(dim)),
		zap.String("index", idx.Type()),
		zap.Int("symbols", e.memory.Len()),
		zap.Int("triples", e.graph.Len()),
		zap.Bool("persistent", e.store != nil),
	)
	return e, nil
}

// resolveDimension reconciles the configured width with the persisted one
// and records it for a fresh store.
func (e *Engine) resolveDimension(ctx context.Context) (vsa.Dimension, error) {
	configured := e.cfg.Dimension
	if configured != 0 {
		if err := configured.Validate(); err != nil {
			return 0, err
		}
	}
	if e.store == nil {
		if configured == 0 {
			return vsa.DefaultDimension, nil
		}
		return configured, nil
	}

	if v, ok, err := e.store.GetMeta(ctx, storage.MetaFormatVersion); err != nil {
		return 0, kgerr.New("engine.New", kgerr.ErrInitializationFailed, err)
	} else if ok && v != storage.FormatVersion {
		return 0, kgerr.New("engine.New", kgerr.ErrInitializationFailed,
			fmt.Errorf("unsupported format version %q", v))
	}

	raw, ok, err := e.store.GetMeta(ctx, storage.MetaDimension)
	if err != nil {
		return 0, kgerr.New("engine.New", kgerr.ErrInitializationFailed, err)
	}
	if ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, kgerr.New("engine.New", kgerr.ErrInitializationFailed,
				fmt.Errorf("invalid persisted dimension %q", raw))
		}
		persisted := vsa.Dimension(n)
		if configured != 0 && configured != persisted {
			return 0, kgerr.Dimension("engine.New", int(persisted), int(configured))
		}
		return persisted, nil
	}

	dim := configured
	if dim == 0 {
		dim = vsa.DefaultDimension
	}
	for key, value := range map[string]string{
		storage.MetaDimension:     strconv.Itoa(int(dim)),
		storage.MetaFormatVersion: storage.FormatVersion,
		storage.MetaEncoding:      vsa.Encoding,
	} {
		if err := e.store.SetMeta(ctx, key, value); err != nil {
			return 0, kgerr.New("engine.New", kgerr.ErrInitializationFailed, err)
		}
	}
	return dim, nil
}

// load restores symbols, then triples, then composites. Composites are stored
// rather than refolded because bundling is order dependent.
func (e *Engine) load(ctx context.Context) error {
	fail := func(err error) error {
		if errors.Is(err, kgerr.ErrInitializationFailed) || errors.Is(err, kgerr.ErrDimensionMismatch) {
			return err
		}
		return kgerr.New("engine.load", kgerr.ErrInitializationFailed, err)
	}

	err := e.store.ForEachSymbol(ctx, func(rec storage.SymbolRecord) error {
		if !rec.Symbol.Valid() {
			return fmt.Errorf("stored symbol id is zero")
		}
		v, err := e.ops.Parse(rec.Vector)
		if err != nil {
			return fmt.Errorf("symbol %s: %w", rec.Symbol, err)
		}
		return e.memory.Restore(rec.Symbol, v)
	})
	if err != nil {
		return fail(err)
	}

	triples, err := e.store.ListTriples(ctx)
	if err != nil {
		return fail(err)
	}
	for _, t := range triples {
		for _, sym := range t.Symbols() {
			if !e.memory.Contains(sym) {
				return fail(fmt.Errorf("triple %s references unknown %s", t, sym))
			}
		}
		e.graph.Restore(t)
	}

	err = e.store.ForEachComposite(ctx, func(rec storage.CompositeRecord) error {
		if len(e.graph.BySubject(rec.Subject)) == 0 {
			return fmt.Errorf("composite for %s has no triples", rec.Subject)
		}
		v, err := e.ops.Parse(rec.Vector)
		if err != nil {
			return fmt.Errorf("composite %s: %w", rec.Subject, err)
		}
		e.graph.RestoreComposite(rec.Subject, graph.Composite{Vector: v, Edges: rec.Edges})
		return e.index.Upsert(vector.Key{Symbol: rec.Subject, Kind: vector.KindComposite}, v)
	})
	if err != nil {
		return fail(err)
	}

	for _, t := range triples {
		if _, ok := e.graph.Composite(t.Subject); !ok {
			return fail(fmt.Errorf("subject %s has triples but no composite", t.Subject))
		}
	}
	return nil
}

func (e *Engine) indexSymbol(sym symbol.Symbol, v vsa.HyperVec) error {
	if err := e.index.Upsert(vector.Key{Symbol: sym, Kind: vector.KindAtomic}, v); err != nil {
		e.logger.Error("failed to index symbol", zap.Uint64("symbol", sym.Uint64()), zap.Error(err))
		return fmt.Errorf("index %s: %w", sym, err)
	}
	return nil
}

// Ops returns the vector algebra at the engine's dimension.
func (e *Engine) Ops() *vsa.Ops { return e.ops }

// ItemMemory returns the symbol to vector store. Symbols created through it
// outside AddTriple are searchable but not persisted.
func (e *Engine) ItemMemory() *memory.ItemMemory { return e.memory }

// Graph returns the triple store for symbolic queries.
func (e *Engine) Graph() *graph.Store { return e.graph }

// Dimension returns the vector width.
func (e *Engine) Dimension() vsa.Dimension { return e.cfg.Dimension }

// Close releases the index and storage.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.index.Close()
	if e.store != nil {
		if cerr := e.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
		e.store = nil
	}
	return err
}

func (e *Engine) closeStore() {
	if e.store != nil {
		_ = e.store.Close()
		e.store = nil
	}
}
