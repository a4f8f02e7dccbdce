package vector

import (
	"container/heap"
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

const maxLevelCap = 16

// HNSWConfig holds the graph parameters.
type HNSWConfig struct {
	M              int    `yaml:"m"`               // links per node above layer 0
	EfConstruction int    `yaml:"ef_construction"` // candidate list size while inserting
	EfSearch       int    `yaml:"ef_search"`       // minimum candidate list size while searching
	Seed           uint64 `yaml:"seed"`            // level assignment seed
}

// DefaultHNSWConfig returns M=16, efConstruction=200, efSearch=64.
func DefaultHNSWConfig() HNSWConfig {
	return HNSWConfig{M: 16, EfConstruction: 200, EfSearch: 64, Seed: 0x5eed}
}

type hnswNode struct {
	key       Key
	vec       vsa.HyperVec
	level     int
	neighbors [][]uint32
	deleted   bool
}

// HNSW is a hierarchical navigable small world graph over Hamming distance.
// Replacing an entry tombstones the old node and inserts a new one; the graph
// is rebuilt from live nodes once tombstones outnumber them.
type HNSW struct {
	dim   vsa.Dimension
	cfg   HNSWConfig
	maxM0 int
	ml    float64

	mu         sync.RWMutex
	nodes      []*hnswNode
	live       map[Key]uint32
	symbols    map[symbol.Symbol]struct{}
	entry      int
	maxLevel   int
	tombstones int
	rng        *rand.Rand
}

// NewHNSW creates an empty graph for vectors of width dim.
func NewHNSW(dim vsa.Dimension, cfg HNSWConfig) *HNSW {
	def := DefaultHNSWConfig()
	if cfg.M < 2 {
		cfg.M = def.M
	}
	if cfg.EfConstruction < cfg.M {
		cfg.EfConstruction = def.EfConstruction
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = def.EfSearch
	}
	h := &HNSW{
		dim:   dim,
		cfg:   cfg,
		maxM0: cfg.M * 2,
		ml:    1 / math.Log(float64(cfg.M)),
	}
	h.reset()
	return h
}

func (h *HNSW) reset() {
	h.nodes = nil
	h.live = make(map[Key]uint32)
	h.symbols = make(map[symbol.Symbol]struct{})
	h.entry = -1
	h.maxLevel = 0
	h.tombstones = 0
	h.rng = rand.New(rand.NewPCG(h.cfg.Seed, h.cfg.Seed^0x9E3779B97F4A7C15))
}

// Type returns the index type identifier.
func (h *HNSW) Type() string {
	return string(IndexTypeHNSW)
}

// Upsert inserts v under key. An unchanged vector is a no-op.
func (h *HNSW) Upsert(key Key, v vsa.HyperVec) error {
	if v.Dim() != h.dim {
		return kgerr.Dimension("vector.Upsert", int(h.dim), int(v.Dim()))
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if id, ok := h.live[key]; ok {
		old := h.nodes[id]
		if old.vec.Equal(v) {
			return nil
		}
		old.deleted = true
		h.tombstones++
	}
	h.insertLocked(key, v)

	if h.tombstones > len(h.live) && len(h.nodes) > 2*h.cfg.EfSearch {
		h.compactLocked()
	}
	return nil
}

func (h *HNSW) selectLevel() int {
	level := int(math.Floor(-math.Log(1-h.rng.Float64()) * h.ml))
	if level > maxLevelCap {
		level = maxLevelCap
	}
	return level
}

func (h *HNSW) insertLocked(key Key, v vsa.HyperVec) {
	id := uint32(len(h.nodes))
	level := h.selectLevel()
	node := &hnswNode{key: key, vec: v, level: level, neighbors: make([][]uint32, level+1)}
	h.nodes = append(h.nodes, node)
	h.live[key] = id
	h.symbols[key.Symbol] = struct{}{}

	if h.entry < 0 {
		h.entry = int(id)
		h.maxLevel = level
		return
	}

	ep := uint32(h.entry)
	for lc := h.maxLevel; lc > level; lc-- {
		ep = h.greedyClosest(v, ep, lc)
	}

	entryPoints := []uint32{ep}
	for lc := min(level, h.maxLevel); lc >= 0; lc-- {
		candidates := h.searchLayer(v, entryPoints, h.cfg.EfConstruction, lc, false)
		m := h.cfg.M
		if lc == 0 {
			m = h.maxM0
		}
		selected := h.selectNeighbors(h.preferLive(candidates), m)
		node.neighbors[lc] = make([]uint32, 0, len(selected))
		for _, c := range selected {
			node.neighbors[lc] = append(node.neighbors[lc], c.id)
			h.connect(c.id, id, lc, m)
		}
		entryPoints = entryPoints[:0]
		for _, c := range candidates {
			entryPoints = append(entryPoints, c.id)
		}
	}

	if level > h.maxLevel {
		h.maxLevel = level
		h.entry = int(id)
	}
}

// preferLive drops tombstoned candidates unless nothing else is left.
func (h *HNSW) preferLive(cs []candidate) []candidate {
	out := make([]candidate, 0, len(cs))
	for _, c := range cs {
		if !h.nodes[c.id].deleted {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return cs
	}
	return out
}

// selectNeighbors keeps a candidate only when it is closer to the base node
// than to every neighbour already kept, so near-duplicate clusters do not
// take every slot. Pruned candidates fill whatever room is left. cs must be
// sorted closest first.
func (h *HNSW) selectNeighbors(cs []candidate, m int) []candidate {
	if len(cs) <= m {
		return cs
	}
	kept := make([]candidate, 0, m)
	var pruned []candidate
	for _, c := range cs {
		if len(kept) >= m {
			break
		}
		diverse := true
		for _, k := range kept {
			if vsa.HammingDistance(h.nodes[c.id].vec, h.nodes[k.id].vec) < c.dist {
				diverse = false
				break
			}
		}
		if diverse {
			kept = append(kept, c)
		} else {
			pruned = append(pruned, c)
		}
	}
	for _, c := range pruned {
		if len(kept) >= m {
			break
		}
		kept = append(kept, c)
	}
	return kept
}

// connect adds a link from -> to at layer. Once the list overflows maxConn,
// links to tombstoned nodes go first and the rest are reselected.
func (h *HNSW) connect(from, to uint32, layer, maxConn int) {
	n := h.nodes[from]
	n.neighbors[layer] = append(n.neighbors[layer], to)
	if len(n.neighbors[layer]) <= maxConn {
		return
	}
	pool := make([]candidate, 0, len(n.neighbors[layer]))
	for _, nb := range n.neighbors[layer] {
		pool = append(pool, candidate{id: nb, dist: vsa.HammingDistance(n.vec, h.nodes[nb].vec)})
	}
	sortCandidates(pool)
	selected := h.selectNeighbors(h.preferLive(pool), maxConn)
	kept := n.neighbors[layer][:0]
	for _, c := range selected {
		kept = append(kept, c.id)
	}
	n.neighbors[layer] = kept
}

func (h *HNSW) greedyClosest(q vsa.HyperVec, ep uint32, layer int) uint32 {
	cur := ep
	curDist := vsa.HammingDistance(q, h.nodes[cur].vec)
	for changed := true; changed; {
		changed = false
		for _, nb := range h.nodes[cur].neighbors[layer] {
			if d := vsa.HammingDistance(q, h.nodes[nb].vec); d < curDist {
				cur, curDist, changed = nb, d, true
			}
		}
	}
	return cur
}

// searchLayer returns up to ef nodes nearest to q at layer, closest first.
// With liveOnly, tombstoned nodes are still walked through but neither
// returned nor counted toward ef.
func (h *HNSW) searchLayer(q vsa.HyperVec, entryPoints []uint32, ef, layer int, liveOnly bool) []candidate {
	visited := make(map[uint32]struct{}, ef*4)
	frontier := &minHeap{}
	found := &maxHeap{}

	keep := func(c candidate) {
		if liveOnly && h.nodes[c.id].deleted {
			return
		}
		heap.Push(found, c)
		if found.Len() > ef {
			heap.Pop(found)
		}
	}

	for _, ep := range entryPoints {
		if _, ok := visited[ep]; ok {
			continue
		}
		visited[ep] = struct{}{}
		c := candidate{id: ep, dist: vsa.HammingDistance(q, h.nodes[ep].vec)}
		heap.Push(frontier, c)
		keep(c)
	}

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(candidate)
		if found.Len() >= ef && cur.dist > (*found)[0].dist {
			break
		}
		node := h.nodes[cur.id]
		if layer >= len(node.neighbors) {
			continue
		}
		for _, nb := range node.neighbors[layer] {
			if _, ok := visited[nb]; ok {
				continue
			}
			visited[nb] = struct{}{}
			c := candidate{id: nb, dist: vsa.HammingDistance(q, h.nodes[nb].vec)}
			if found.Len() < ef || c.less((*found)[0]) {
				heap.Push(frontier, c)
				keep(c)
			}
		}
	}

	out := make([]candidate, found.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(found).(candidate)
	}
	return out
}

// Search walks the graph from the entry point. Small graphs are scanned
// exhaustively, which keeps their results exact, and so is any graph walk
// that comes back with fewer than min(k, symbols) distinct symbols.
func (h *HNSW) Search(ctx context.Context, query vsa.HyperVec, k int) ([]Result, error) {
	if query.Dim() != h.dim {
		return nil, kgerr.Dimension("vector.Search", int(h.dim), int(query.Dim()))
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.live) == 0 {
		return nil, kgerr.New("vector.Search", kgerr.ErrIndexUnavailable, nil)
	}
	if k <= 0 {
		return []Result{}, nil
	}

	// Every symbol owns at most two entries, so 2k live hits hold k symbols.
	ef := max(2*k, h.cfg.EfSearch)
	if len(h.live) <= ef {
		return h.scanLocked(query, k), nil
	}

	ep := uint32(h.entry)
	for lc := h.maxLevel; lc > 0; lc-- {
		ep = h.greedyClosest(query, ep, lc)
	}
	found := h.searchLayer(query, []uint32{ep}, ef, 0, true)

	hits := make([]Result, 0, len(found))
	for _, c := range found {
		n := h.nodes[c.id]
		hits = append(hits, Result{Symbol: n.key.Symbol, Kind: n.key.Kind, Score: score(h.dim, c.dist)})
	}
	results := rank(hits, k)
	if len(results) < min(k, len(h.symbols)) {
		return h.scanLocked(query, k), nil
	}
	return results, nil
}

func (h *HNSW) scanLocked(query vsa.HyperVec, k int) []Result {
	hits := make([]Result, 0, len(h.live))
	for key, id := range h.live {
		hits = append(hits, Result{
			Symbol: key.Symbol,
			Kind:   key.Kind,
			Score:  score(h.dim, vsa.HammingDistance(query, h.nodes[id].vec)),
		})
	}
	return rank(hits, k)
}

func (h *HNSW) compactLocked() {
	keep := make([]*hnswNode, 0, len(h.live))
	for _, n := range h.nodes {
		if !n.deleted {
			keep = append(keep, n)
		}
	}
	h.reset()
	for _, n := range keep {
		h.insertLocked(n.key, n.vec)
	}
}

// Len returns the number of live entries.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.live)
}

// HNSWStats describes the graph shape.
type HNSWStats struct {
	Nodes      int
	Live       int
	Tombstones int
	MaxLevel   int
}

// Stats returns the current graph shape.
func (h *HNSW) Stats() HNSWStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HNSWStats{Nodes: len(h.nodes), Live: len(h.live), Tombstones: h.tombstones, MaxLevel: h.maxLevel}
}

// Close is a no-op; the graph lives in memory.
func (h *HNSW) Close() error {
	return nil
}
