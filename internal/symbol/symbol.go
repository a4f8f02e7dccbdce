// Package symbol defines the identifiers the knowledge graph is built from.
package symbol

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/hdkg/internal/kgerr"
)

// Symbol is an opaque non-zero 64-bit identifier. Zero is reserved.
type Symbol uint64

// New returns id as a Symbol, or kgerr.ErrInvalidSymbol when id is zero.
func New(id uint64) (Symbol, error) {
	if id == 0 {
		return 0, kgerr.New("symbol.New", kgerr.ErrInvalidSymbol, nil)
	}
	return Symbol(id), nil
}

// Uint64 returns the raw identifier.
func (s Symbol) Uint64() uint64 { return uint64(s) }

// Valid reports whether s is usable (non-zero).
func (s Symbol) Valid() bool { return s != 0 }

func (s Symbol) String() string {
	return "sym:" + strconv.FormatUint(uint64(s), 10)
}

// Parse reads a decimal symbol id. Surrounding whitespace is ignored.
func Parse(text string) (Symbol, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "sym:")
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, kgerr.New("symbol.Parse", kgerr.ErrInvalidSymbol, fmt.Errorf("%q: %w", text, err))
	}
	return New(n)
}

// ParseList splits a comma-separated list and keeps every entry that parses
// to a valid symbol, in order. Invalid entries are returned separately so the
// caller can report them.
func ParseList(list string) (valid []Symbol, invalid []string) {
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, err := Parse(part)
		if err != nil {
			invalid = append(invalid, part)
			continue
		}
		valid = append(valid, s)
	}
	return valid, invalid
}

// FromLabel returns a stable symbol for a text label. The label is lowercased
// and trimmed first, so "Dog " and "dog" share a symbol.
func FromLabel(label string) Symbol {
	normalized := strings.ToLower(strings.TrimSpace(label))
	hash := sha256.Sum256([]byte(normalized))
	id := binary.LittleEndian.Uint64(hash[:8])
	if id == 0 {
		id = 1
	}
	return Symbol(id)
}
