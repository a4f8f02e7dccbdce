package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"en", English, true},
		{"FR", French, true},
		{" es-MX ", Spanish, true},
		{"ru_RU", Russian, true},
		{"ar", Arabic, true},
		{"auto", Auto, true},
		{"de", Auto, false},
		{"", Auto, false},
	}
	for _, tt := range tests {
		got, ok := ParseLanguage(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLanguageNames(t *testing.T) {
	assert.Len(t, Supported(), 5)
	assert.Equal(t, "fr", French.Code())
	assert.Equal(t, "Arabic", Arabic.Name())
	assert.Equal(t, "auto", Auto.String())
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		lang       Language
		confidence float64
	}{
		{"empty", "   ", English, 0},
		{"no letters", "12345 !!!", English, 0.1},
		{"russian", "Москва является столицей России", Russian, 0.95},
		{"arabic", "القاهرة هي عاصمة مصر", Arabic, 0.95},
		{"english", "The cat is on the mat and it is happy", English, 0.80},
		{"french", "Le chat est dans la maison avec une souris", French, 0.80},
		{"spanish", "¿Dónde está el gato?", Spanish, 0.80},
		{"no markers", "Lorem ipsum dolor", English, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLanguage(tt.text)
			assert.Equal(t, tt.lang, got.Language)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("A b. C d!  E f? 你好。 tail")
	assert.Equal(t, []string{"A b.", "C d!", "E f?", "你好。", "tail"}, got)
	assert.Empty(t, SplitSentences("   "))
}

func TestDetectPerSentence(t *testing.T) {
	got := DetectPerSentence("The cat is a mammal. Москва находится в России.")
	if assert.Len(t, got, 2) {
		assert.Equal(t, English, got[0].Detection.Language)
		assert.Equal(t, Russian, got[1].Detection.Language)
	}
}
