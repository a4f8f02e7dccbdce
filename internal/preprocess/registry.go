package preprocess

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

const (
	DefaultFuzzyThreshold = 0.6
	DefaultCacheSize      = 10000

	trigramTag     = "hdkg/trigram/v1"
	fuzzyCandidate = 5
)

// Resolution is the symbol a surface label resolved to.
type Resolution struct {
	Symbol     symbol.Symbol `json:"symbol"`
	Label      string        `json:"label"`
	Similarity float64       `json:"similarity"`
	Fuzzy      bool          `json:"fuzzy"`
}

// Registry assigns every canonical label a deterministic symbol and finds
// near-miss spellings of labels it has already seen. Candidates come from an
// in-memory bleve index and are confirmed by trigram hypervector similarity.
type Registry struct {
	ops       *vsa.Ops
	index     bleve.Index
	cache     *vectorCache
	threshold float64
	logger    *zap.Logger

	mu     sync.RWMutex
	labels map[symbol.Symbol]string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithThreshold sets the minimum trigram similarity for a fuzzy match.
func WithThreshold(t float64) RegistryOption {
	return func(r *Registry) {
		if t > 0 {
			r.threshold = t
		}
	}
}

// WithCacheSize bounds the label vector cache.
func WithCacheSize(n int) RegistryOption {
	return func(r *Registry) {
		r.cache = newVectorCache(n)
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry whose label vectors use ops.
func NewRegistry(ops *vsa.Ops, opts ...RegistryOption) (*Registry, error) {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	field := bleve.NewTextFieldMapping()
	field.Analyzer = standard.Name
	doc.AddFieldMappingsAt("label", field)
	im.DefaultMapping = doc

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create label index: %w", err)
	}

	r := &Registry{
		ops:       ops,
		index:     index,
		cache:     newVectorCache(DefaultCacheSize),
		threshold: DefaultFuzzyThreshold,
		logger:    zap.NewNop(),
		labels:    make(map[symbol.Symbol]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the label index.
func (r *Registry) Close() error {
	return r.index.Close()
}

func canonicalLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Register returns the symbol for label, recording it on first sight.
func (r *Registry) Register(label string) (symbol.Symbol, error) {
	label = canonicalLabel(label)
	if label == "" {
		return 0, errors.New("empty label")
	}
	sym := symbol.FromLabel(label)

	r.mu.RLock()
	existing, ok := r.labels[sym]
	r.mu.RUnlock()
	if ok {
		if existing != label {
			return 0, fmt.Errorf("label %q collides with %q on %s", label, existing, sym)
		}
		return sym, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.labels[sym]; ok {
		if existing != label {
			return 0, fmt.Errorf("label %q collides with %q on %s", label, existing, sym)
		}
		return sym, nil
	}
	if err := r.index.Index(sym.String(), map[string]interface{}{"label": label}); err != nil {
		return 0, fmt.Errorf("failed to index label %q: %w", label, err)
	}
	r.labels[sym] = label
	r.logger.Debug("Registered label", zap.String("label", label), zap.Stringer("symbol", sym))
	return sym, nil
}

// Label returns the canonical label recorded for sym.
func (r *Registry) Label(sym symbol.Symbol) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.labels[sym]
	return l, ok
}

// Lookup returns the symbol of an exact, already registered label.
func (r *Registry) Lookup(label string) (symbol.Symbol, bool) {
	label = canonicalLabel(label)
	sym := symbol.FromLabel(label)
	existing, ok := r.Label(sym)
	return sym, ok && existing == label
}

// Len returns the number of registered labels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.labels)
}

// Resolve finds the registered label closest to label. An exact match wins;
// otherwise the best fuzzy candidate above the threshold is returned.
func (r *Registry) Resolve(label string) (Resolution, bool, error) {
	label = canonicalLabel(label)
	if label == "" {
		return Resolution{}, false, nil
	}
	if sym, ok := r.Lookup(label); ok {
		return Resolution{Symbol: sym, Label: label, Similarity: 1}, true, nil
	}
	if len([]rune(label)) < 2 {
		return Resolution{}, false, nil
	}

	q := bleve.NewMatchQuery(label)
	q.SetField("label")
	q.Fuzziness = 1
	req := bleve.NewSearchRequest(q)
	req.Size = fuzzyCandidate
	res, err := r.index.Search(req)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("label search failed: %w", err)
	}

	query, err := r.LabelVector(label)
	if err != nil {
		return Resolution{}, false, err
	}
	var best Resolution
	for _, hit := range res.Hits {
		sym, err := symbol.Parse(hit.ID)
		if err != nil {
			continue
		}
		candidate, ok := r.Label(sym)
		if !ok {
			continue
		}
		cv, err := r.LabelVector(candidate)
		if err != nil {
			return Resolution{}, false, err
		}
		sim, err := r.ops.Similarity(query, cv)
		if err != nil {
			return Resolution{}, false, err
		}
		if sim > best.Similarity {
			best = Resolution{Symbol: sym, Label: candidate, Similarity: sim, Fuzzy: true}
		}
	}
	if best.Similarity > r.threshold {
		return best, true, nil
	}
	return Resolution{}, false, nil
}

// ResolveOrRegister resolves label against known labels and registers it when
// nothing is close enough.
func (r *Registry) ResolveOrRegister(label string) (Resolution, error) {
	res, ok, err := r.Resolve(label)
	if err != nil {
		return Resolution{}, err
	}
	if ok {
		return res, nil
	}
	sym, err := r.Register(label)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Symbol: sym, Label: canonicalLabel(label), Similarity: 1}, nil
}

// LabelVector encodes label as the bundle of its character trigrams, so
// spellings that share most trigrams land close together.
func (r *Registry) LabelVector(label string) (vsa.HyperVec, error) {
	label = canonicalLabel(label)
	if v, ok := r.cache.Get(label); ok {
		return v, nil
	}

	grams := trigrams(label)
	vs := make([]vsa.HyperVec, 0, len(grams)+1)
	for _, g := range grams {
		vs = append(vs, r.ops.Random(sha256.Sum256([]byte(trigramTag+"\x00"+g))))
	}
	if len(vs)%2 == 0 {
		// Majority ties on even counts correlate unrelated labels.
		vs = append(vs, r.ops.Random(sha256.Sum256([]byte(trigramTag+"\x01"+label))))
	}
	v, err := r.ops.Bundle(vs)
	if err != nil {
		return vsa.HyperVec{}, err
	}
	r.cache.Set(label, v)
	return v, nil
}

func trigrams(label string) []string {
	runes := []rune(" " + label + " ")
	if len(runes) < 3 {
		return []string{string(runes)}
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}
