package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/hdkg/internal/kgerr"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
)

func testOps(t *testing.T) *vsa.Ops {
	t.Helper()
	ops, err := vsa.NewOps(vsa.TestDimension)
	require.NoError(t, err)
	return ops
}

func indexes(t *testing.T) map[string]Index {
	t.Helper()
	mem, err := NewMemoryIndex(vsa.TestDimension)
	require.NoError(t, err)
	return map[string]Index{
		"memory": mem,
		"hnsw":   NewHNSW(vsa.TestDimension, DefaultHNSWConfig()),
	}
}

func atomic(s symbol.Symbol) Key    { return Key{Symbol: s, Kind: KindAtomic} }
func composite(s symbol.Symbol) Key { return Key{Symbol: s, Kind: KindComposite} }

func TestIndex_Empty(t *testing.T) {
	ops := testOps(t)
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			_, err := idx.Search(context.Background(), ops.EncodeSymbol(1), 5)
			assert.ErrorIs(t, err, kgerr.ErrIndexUnavailable)
		})
	}
}

func TestIndex_Ordering(t *testing.T) {
	ops := testOps(t)
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			for s := symbol.Symbol(1); s <= 20; s++ {
				require.NoError(t, idx.Upsert(atomic(s), ops.EncodeSymbol(s)))
			}
			assert.Equal(t, 20, idx.Len())

			results, err := idx.Search(ctx, ops.EncodeSymbol(7), 5)
			require.NoError(t, err)
			require.Len(t, results, 5)
			assert.Equal(t, symbol.Symbol(7), results[0].Symbol)
			assert.Equal(t, 1.0, results[0].Score)
			for i := 1; i < len(results); i++ {
				assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
			}

			all, err := idx.Search(ctx, ops.EncodeSymbol(7), 100)
			require.NoError(t, err)
			assert.Len(t, all, 20)

			none, err := idx.Search(ctx, ops.EncodeSymbol(7), 0)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestIndex_TiesByAscendingSymbol(t *testing.T) {
	ops := testOps(t)
	v := ops.EncodeSymbol(100)
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(atomic(9), v))
			require.NoError(t, idx.Upsert(atomic(3), v))
			require.NoError(t, idx.Upsert(atomic(5), v))

			results, err := idx.Search(context.Background(), v, 3)
			require.NoError(t, err)
			require.Len(t, results, 3)
			assert.Equal(t, []symbol.Symbol{3, 5, 9},
				[]symbol.Symbol{results[0].Symbol, results[1].Symbol, results[2].Symbol})
		})
	}
}

func TestIndex_NoDuplicateSymbols(t *testing.T) {
	ops := testOps(t)
	comp, _ := ops.Bind(ops.EncodeSymbol(2), ops.EncodeSymbol(3))
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(atomic(1), ops.EncodeSymbol(1)))
			require.NoError(t, idx.Upsert(composite(1), comp))
			require.NoError(t, idx.Upsert(atomic(2), ops.EncodeSymbol(2)))

			results, err := idx.Search(context.Background(), comp, 10)
			require.NoError(t, err)
			require.Len(t, results, 2)
			assert.Equal(t, symbol.Symbol(1), results[0].Symbol)
			assert.Equal(t, 1.0, results[0].Score)
			assert.Equal(t, KindComposite, results[0].Kind)
			assert.Equal(t, symbol.Symbol(2), results[1].Symbol)
		})
	}
}

func TestIndex_UpsertReplaces(t *testing.T) {
	ops := testOps(t)
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(composite(1), ops.EncodeSymbol(50)))
			require.NoError(t, idx.Upsert(composite(1), ops.EncodeSymbol(60)))
			assert.Equal(t, 1, idx.Len())

			results, err := idx.Search(context.Background(), ops.EncodeSymbol(60), 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, 1.0, results[0].Score)
		})
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	other, err := vsa.NewOps(2000)
	require.NoError(t, err)
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			err := idx.Upsert(atomic(1), other.EncodeSymbol(1))
			assert.ErrorIs(t, err, kgerr.ErrDimensionMismatch)
			_, err = idx.Search(context.Background(), other.EncodeSymbol(1), 1)
			assert.ErrorIs(t, err, kgerr.ErrDimensionMismatch)
		})
	}
}

func TestNewIndex(t *testing.T) {
	tests := []struct {
		typ     string
		want    string
		wantErr bool
	}{
		{"", "hnsw", false},
		{"hnsw", "hnsw", false},
		{"memory", "memory", false},
		{"faiss", "", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("type=%q", tt.typ), func(t *testing.T) {
			idx, err := NewIndex(tt.typ, vsa.TestDimension, DefaultHNSWConfig())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer idx.Close()
			assert.Equal(t, tt.want, idx.Type())
		})
	}

	_, err := NewIndex("memory", 0, DefaultHNSWConfig())
	assert.Error(t, err)
}
