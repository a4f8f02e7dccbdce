package vsa

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/hyperjump/hdkg/internal/symbol"
)

// seedTag separates item-memory derivation from any other use of the same
// generator. Changing it changes every persisted vector.
const seedTag = "hdkg/item-memory/v1"

// SymbolSeed returns the ChaCha8 key for sym: the little-endian symbol id
// followed by seedTag, zero padded to 32 bytes.
func SymbolSeed(sym symbol.Symbol) [32]byte {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], sym.Uint64())
	copy(seed[8:], seedTag)
	return seed
}

// EncodeSymbol derives the atomic vector for sym. The result depends only on
// the symbol and the dimension: the words are consecutive Uint64 outputs of a
// ChaCha8 stream keyed with SymbolSeed, and the last word is masked to width.
func (o *Ops) EncodeSymbol(sym symbol.Symbol) HyperVec {
	return o.Random(SymbolSeed(sym))
}

// Random draws a vector from a ChaCha8 stream keyed with seed.
func (o *Ops) Random(seed [32]byte) HyperVec {
	rng := rand.NewChaCha8(seed)
	out := newZero(o.dim)
	for i := range out.words {
		out.words[i] = rng.Uint64()
	}
	out.words[len(out.words)-1] &= o.dim.tailMask()
	return out
}

// EncodeSequence bundles the items after permuting each by its distance from
// the end, so order matters: the last item is unshifted.
func (o *Ops) EncodeSequence(items []HyperVec) (HyperVec, error) {
	if len(items) == 1 {
		return o.Bundle(items)
	}
	shifted := make([]HyperVec, len(items))
	for i, v := range items {
		p, err := o.Permute(v, len(items)-1-i)
		if err != nil {
			return HyperVec{}, err
		}
		shifted[i] = p
	}
	return o.Bundle(shifted)
}

// EncodeRoleFiller binds a role to its filler.
func (o *Ops) EncodeRoleFiller(role, filler HyperVec) (HyperVec, error) {
	return o.Bind(role, filler)
}
