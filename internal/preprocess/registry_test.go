package preprocess

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

func newRegistry(t *testing.T, dim vsa.Dimension, opts ...RegistryOption) *Registry {
	t.Helper()
	ops, err := vsa.NewOps(dim)
	require.NoError(t, err)
	r, err := NewRegistry(ops, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistry_Register(t *testing.T) {
	r := newRegistry(t, vsa.TestDimension)

	sym, err := r.Register("Paris")
	require.NoError(t, err)
	assert.Equal(t, symbol.FromLabel("paris"), sym)

	again, err := r.Register("  PARIS ")
	require.NoError(t, err)
	assert.Equal(t, sym, again)
	assert.Equal(t, 1, r.Len())

	label, ok := r.Label(sym)
	assert.True(t, ok)
	assert.Equal(t, "paris", label)

	_, err = r.Register("   ")
	assert.Error(t, err)
}

func TestRegistry_Lookup(t *testing.T) {
	r := newRegistry(t, vsa.TestDimension)
	_, ok := r.Lookup("berlin")
	assert.False(t, ok)

	want, err := r.Register("new  york")
	require.NoError(t, err)
	got, ok := r.Lookup("New York")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRegistry_ResolveFuzzy(t *testing.T) {
	r := newRegistry(t, vsa.DefaultDimension)
	want, err := r.Register("kubernetes")
	require.NoError(t, err)

	exact, ok, err := r.Resolve("Kubernetes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, exact.Fuzzy)
	assert.Equal(t, want, exact.Symbol)

	near, ok, err := r.Resolve("kubernets")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, near.Fuzzy)
	assert.Equal(t, want, near.Symbol)
	assert.Equal(t, "kubernetes", near.Label)
	assert.Greater(t, near.Similarity, DefaultFuzzyThreshold)
	assert.Less(t, near.Similarity, 1.0)

	_, ok, err = r.Resolve("zebra")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_ThresholdRejectsNearMiss(t *testing.T) {
	r := newRegistry(t, vsa.DefaultDimension, WithThreshold(0.99))
	_, err := r.Register("kubernetes")
	require.NoError(t, err)

	_, ok, err := r.Resolve("kubernets")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_ResolveOrRegister(t *testing.T) {
	r := newRegistry(t, vsa.TestDimension)
	res, err := r.ResolveOrRegister("Mammal")
	require.NoError(t, err)
	assert.Equal(t, symbol.FromLabel("mammal"), res.Symbol)
	assert.Equal(t, "mammal", res.Label)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LabelVector(t *testing.T) {
	r := newRegistry(t, vsa.TestDimension, WithCacheSize(2))
	a, err := r.LabelVector("graph")
	require.NoError(t, err)
	b, err := r.LabelVector("Graph")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, vsa.TestDimension, a.Dim())

	_, _ = r.LabelVector("tree")
	_, _ = r.LabelVector("forest")
	assert.Equal(t, 2, r.cache.Len())

	other := newRegistry(t, vsa.TestDimension)
	c, err := other.LabelVector("graph")
	require.NoError(t, err)
	assert.True(t, a.Equal(c))
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := newRegistry(t, vsa.TestDimension)
	labels := []string{"alpha", "beta", "gamma", "delta"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Register(labels[i%len(labels)])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, len(labels), r.Len())
}

func TestVectorCache_Eviction(t *testing.T) {
	ops, err := vsa.NewOps(vsa.TestDimension)
	require.NoError(t, err)
	c := newVectorCache(2)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", ops.Zero())
	c.Set("b", ops.Zero())
	_, _ = c.Get("a")
	c.Set("c", ops.Zero()) // evicts b
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}
