package vector

import (
	"context"
	"sync"

	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/vsa"
)

// MemoryIndex answers queries by scanning every entry.
type MemoryIndex struct {
	dim     vsa.Dimension
	mu      sync.RWMutex
	entries map[Key]vsa.HyperVec
}

// NewMemoryIndex creates an exhaustive index for vectors of width dim.
func NewMemoryIndex(dim vsa.Dimension) (*MemoryIndex, error) {
	if err := dim.Validate(); err != nil {
		return nil, err
	}
	return &MemoryIndex{dim: dim, entries: make(map[Key]vsa.HyperVec)}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Upsert stores v under key, replacing any previous vector.
func (m *MemoryIndex) Upsert(key Key, v vsa.HyperVec) error {
	if v.Dim() != m.dim {
		return kgerr.Dimension("vector.Upsert", int(m.dim), int(v.Dim()))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
	return nil
}

// Search scores every entry against query.
func (m *MemoryIndex) Search(ctx context.Context, query vsa.HyperVec, k int) ([]Result, error) {
	if query.Dim() != m.dim {
		return nil, kgerr.Dimension("vector.Search", int(m.dim), int(query.Dim()))
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, kgerr.New("vector.Search", kgerr.ErrIndexUnavailable, nil)
	}
	if k <= 0 {
		return []Result{}, nil
	}
	hits := make([]Result, 0, len(m.entries))
	for key, v := range m.entries {
		hits = append(hits, Result{
			Symbol: key.Symbol,
			Kind:   key.Kind,
			Score:  score(m.dim, vsa.HammingDistance(query, v)),
		})
	}
	return rank(hits, k), nil
}

// Len returns the number of entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
