package preprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPattern(t *testing.T) {
	tests := []struct {
		lang      Language
		sentence  string
		predicate string
		start     int
		end       int
	}{
		{English, "the cat is a mammal", PredicateIsA, 2, 4},
		{English, "paris is located in france", PredicateLocatedIn, 1, 4},
		{English, "the engine is part of a car", PredicatePartOf, 2, 5},
		{English, "dogs are loyal", PredicateIsA, 1, 2},
		{French, "le chat est un animal", PredicateIsA, 2, 4},
		{Spanish, "la rueda es parte de el coche", PredicatePartOf, 2, 5},
		{Russian, "москва находится в россии", PredicateLocatedIn, 1, 3},
		{Arabic, "القاهرة جزء من مصر", PredicatePartOf, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			m, ok := FindPattern(tt.lang, strings.Fields(tt.sentence))
			require.True(t, ok)
			assert.Equal(t, tt.predicate, m.Pattern.Predicate)
			assert.Equal(t, tt.start, m.Start)
			assert.Equal(t, tt.end, m.End)
		})
	}
}

func TestFindPattern_NeedsBothSides(t *testing.T) {
	_, ok := FindPattern(English, []string{"is", "a", "mammal"})
	assert.False(t, ok)
	_, ok = FindPattern(English, []string{"cat", "is", "a"})
	assert.False(t, ok)
	_, ok = FindPattern(English, []string{"hello", "world"})
	assert.False(t, ok)
}

func TestPatterns_LongestFirst(t *testing.T) {
	for _, lang := range Supported() {
		ps := Patterns(lang)
		require.NotEmpty(t, ps, lang.Code())
		for i := 1; i < len(ps); i++ {
			assert.GreaterOrEqual(t, len(ps[i-1].Words), len(ps[i].Words), lang.Code())
		}
	}
	assert.Empty(t, Patterns(Auto))
}

func TestClaimType(t *testing.T) {
	assert.Equal(t, "FACTUAL", ClaimType(PredicateIsA))
	assert.Equal(t, "FACTUAL", ClaimType(PredicateDefines))
	assert.Equal(t, "CAUSAL", ClaimType(PredicateCauses))
	assert.Equal(t, "SPATIAL", ClaimType(PredicateLocatedIn))
	assert.Equal(t, "RELATIONAL", ClaimType(PredicateSimilarTo))
	assert.Equal(t, "STRUCTURAL", ClaimType(PredicateComposedOf))
	assert.Equal(t, "DEPENDENCY", ClaimType(PredicateDependsOn))
	assert.Equal(t, "OTHER", ClaimType("likes"))
}

func TestIsVoid(t *testing.T) {
	assert.True(t, IsVoid(English, "the"))
	assert.False(t, IsVoid(English, "cat"))
	assert.True(t, IsVoid(French, "les"))
	assert.False(t, IsVoid(Russian, "в"))
}
