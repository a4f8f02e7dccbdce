package preprocess

import (
	"slices"
	"strings"
)

// Canonical predicate labels produced by the relational patterns.
const (
	PredicateIsA        = "is-a"
	PredicateHasA       = "has-a"
	PredicatePartOf     = "part-of"
	PredicateLocatedIn  = "located-in"
	PredicateContains   = "contains"
	PredicateCauses     = "causes"
	PredicateSimilarTo  = "similar-to"
	PredicateDependsOn  = "depends-on"
	PredicateComposedOf = "composed-of"
	PredicateImplements = "implements"
	PredicateDefines    = "defines"
)

// Pattern is a run of lowercase tokens that links a subject to an object.
type Pattern struct {
	Words      []string
	Predicate  string
	Confidence float64
}

func pat(phrase, predicate string, confidence float64) Pattern {
	return Pattern{Words: strings.Fields(phrase), Predicate: predicate, Confidence: confidence}
}

var patternTable = map[Language][]Pattern{
	English: {
		pat("is similar to", PredicateSimilarTo, 0.85),
		pat("is located in", PredicateLocatedIn, 0.90),
		pat("is composed of", PredicateComposedOf, 0.85),
		pat("is part of", PredicatePartOf, 0.90),
		pat("is made of", PredicateComposedOf, 0.85),
		pat("depends on", PredicateDependsOn, 0.85),
		pat("belongs to", PredicatePartOf, 0.85),
		pat("is a", PredicateIsA, 0.90),
		pat("is an", PredicateIsA, 0.90),
		pat("are a", PredicateIsA, 0.85),
		pat("are an", PredicateIsA, 0.85),
		pat("has a", PredicateHasA, 0.85),
		pat("has an", PredicateHasA, 0.85),
		pat("have a", PredicateHasA, 0.85),
		pat("are", PredicateIsA, 0.85),
		pat("has", PredicateHasA, 0.85),
		pat("have", PredicateHasA, 0.85),
		pat("contains", PredicateContains, 0.85),
		pat("causes", PredicateCauses, 0.85),
		pat("implements", PredicateImplements, 0.85),
		pat("defines", PredicateDefines, 0.85),
	},
	French: {
		pat("est similaire à", PredicateSimilarTo, 0.85),
		pat("se trouve dans", PredicateLocatedIn, 0.90),
		pat("est situé dans", PredicateLocatedIn, 0.90),
		pat("est composé de", PredicateComposedOf, 0.85),
		pat("fait partie de", PredicatePartOf, 0.90),
		pat("dépend de", PredicateDependsOn, 0.85),
		pat("est un", PredicateIsA, 0.90),
		pat("est une", PredicateIsA, 0.90),
		pat("sont des", PredicateIsA, 0.85),
		pat("a un", PredicateHasA, 0.85),
		pat("a une", PredicateHasA, 0.85),
		pat("contient", PredicateContains, 0.85),
		pat("cause", PredicateCauses, 0.85),
		pat("implémente", PredicateImplements, 0.85),
		pat("définit", PredicateDefines, 0.85),
	},
	Spanish: {
		pat("está compuesto de", PredicateComposedOf, 0.85),
		pat("se encuentra en", PredicateLocatedIn, 0.90),
		pat("es parte de", PredicatePartOf, 0.90),
		pat("es similar a", PredicateSimilarTo, 0.85),
		pat("depende de", PredicateDependsOn, 0.85),
		pat("está en", PredicateLocatedIn, 0.90),
		pat("es un", PredicateIsA, 0.90),
		pat("es una", PredicateIsA, 0.90),
		pat("son", PredicateIsA, 0.85),
		pat("tiene", PredicateHasA, 0.85),
		pat("contiene", PredicateContains, 0.85),
		pat("causa", PredicateCauses, 0.85),
		pat("implementa", PredicateImplements, 0.85),
		pat("define", PredicateDefines, 0.85),
	},
	Russian: {
		pat("является частью", PredicatePartOf, 0.90),
		pat("находится в", PredicateLocatedIn, 0.90),
		pat("состоит из", PredicateComposedOf, 0.85),
		pat("зависит от", PredicateDependsOn, 0.85),
		pat("похож на", PredicateSimilarTo, 0.85),
		pat("является", PredicateIsA, 0.90),
		pat("имеет", PredicateHasA, 0.85),
		pat("содержит", PredicateContains, 0.85),
		pat("вызывает", PredicateCauses, 0.85),
		pat("реализует", PredicateImplements, 0.85),
		pat("определяет", PredicateDefines, 0.85),
	},
	Arabic: {
		pat("يحتوي على", PredicateContains, 0.85),
		pat("يعتمد على", PredicateDependsOn, 0.85),
		pat("يقع في", PredicateLocatedIn, 0.90),
		pat("جزء من", PredicatePartOf, 0.90),
		pat("يتكون من", PredicateComposedOf, 0.85),
		pat("يشبه", PredicateSimilarTo, 0.85),
		pat("يسبب", PredicateCauses, 0.85),
		pat("لديه", PredicateHasA, 0.85),
		pat("هو", PredicateIsA, 0.85),
		pat("هي", PredicateIsA, 0.85),
	},
}

func init() {
	// Longer patterns win: "is part of" must be tried before "is a".
	for lang, ps := range patternTable {
		slices.SortStableFunc(ps, func(a, b Pattern) int { return len(b.Words) - len(a.Words) })
		patternTable[lang] = ps
	}
}

var voidWords = map[Language]map[string]struct{}{
	English: set("a", "an", "the"),
	French:  set("le", "la", "les", "l", "un", "une", "des", "du"),
	Spanish: set("el", "la", "los", "las", "un", "una", "unos", "unas"),
	Russian: {},
	Arabic:  {},
}

func set(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Patterns returns the relational patterns for lang, longest first.
func Patterns(lang Language) []Pattern {
	return patternTable[lang]
}

// IsVoid reports whether word carries no meaning of its own in lang.
func IsVoid(lang Language, word string) bool {
	_, ok := voidWords[lang][word]
	return ok
}

// Match is a relational pattern found inside a token run.
type Match struct {
	Pattern Pattern
	Start   int
	End     int
}

// FindPattern returns the first pattern, longest first, that occurs with at
// least one token on each side.
func FindPattern(lang Language, tokens []string) (Match, bool) {
	for _, candidate := range Patterns(lang) {
		if i := findWords(tokens, candidate.Words); i >= 0 {
			return Match{Pattern: candidate, Start: i, End: i + len(candidate.Words)}, true
		}
	}
	return Match{}, false
}

func findWords(tokens, words []string) int {
	n := len(words)
	if len(tokens) < n+2 {
		return -1
	}
	for i := 1; i+n < len(tokens); i++ {
		if slices.Equal(tokens[i:i+n], words) {
			return i
		}
	}
	return -1
}

// ClaimType classifies a canonical predicate.
func ClaimType(predicate string) string {
	switch predicate {
	case PredicateIsA, PredicateHasA, PredicateContains, PredicateImplements, PredicateDefines:
		return "FACTUAL"
	case PredicateCauses:
		return "CAUSAL"
	case PredicateLocatedIn:
		return "SPATIAL"
	case PredicateSimilarTo:
		return "RELATIONAL"
	case PredicatePartOf, PredicateComposedOf:
		return "STRUCTURAL"
	case PredicateDependsOn:
		return "DEPENDENCY"
	default:
		return "OTHER"
	}
}

func entityType(predicate string, subject bool) string {
	if predicate == PredicateLocatedIn && !subject {
		return "PLACE"
	}
	return "CONCEPT"
}
