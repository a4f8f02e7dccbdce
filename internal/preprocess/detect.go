package preprocess

import (
	"strings"
	"unicode"
)

// Detection is the outcome of guessing a text's language.
type Detection struct {
	Language   Language `json:"language"`
	Confidence float64  `json:"confidence"`
}

// SentenceDetection pairs one sentence with its own detection.
type SentenceDetection struct {
	Text      string
	Detection Detection
}

var (
	cyrillic = &unicode.RangeTable{R16: []unicode.Range16{
		{Lo: 0x0400, Hi: 0x052F, Stride: 1},
		{Lo: 0x2DE0, Hi: 0x2DFF, Stride: 1},
		{Lo: 0xA640, Hi: 0xA69F, Stride: 1},
	}}
	arabic = &unicode.RangeTable{R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	}}
	latin = &unicode.RangeTable{R16: []unicode.Range16{
		{Lo: 0x0041, Hi: 0x024F, Stride: 1},
		{Lo: 0x1E00, Hi: 0x1EFF, Stride: 1},
	}}
)

var latinMarkers = map[Language][]string{
	English: {"the", "is", "are", "was", "were", "with", "from", "this", "that", "and", "for",
		"not", "but", "have", "has", "had", "will", "would", "can", "could", "should",
		"it", "they", "we", "you", "he", "she"},
	French: {"le", "la", "les", "des", "est", "dans", "avec", "une", "sur", "pour", "pas",
		"qui", "que", "sont", "ont", "fait", "plus", "mais", "aussi", "cette", "ces",
		"nous", "vous", "ils", "elles"},
	Spanish: {"el", "los", "las", "está", "esta", "tiene", "por", "para", "pero", "también",
		"tambien", "como", "más", "mas", "son", "hay", "ser", "estar", "muy", "todo",
		"puede", "sobre", "nos", "ese", "esa", "estos"},
}

var markerSets = func() map[Language]map[string]struct{} {
	out := make(map[Language]map[string]struct{}, len(latinMarkers))
	for lang, words := range latinMarkers {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		out[lang] = set
	}
	return out
}()

const (
	frenchDiacritics  = "éèêëçàùîôœ"
	spanishDiacritics = "ñáíóúü"
	invertedMarks     = "¿¡"
)

var latinOrder = []Language{English, French, Spanish}

// DetectLanguage guesses the language of text from its script and, for Latin
// text, from marker words and diacritics.
func DetectLanguage(text string) Detection {
	if strings.TrimSpace(text) == "" {
		return Detection{Language: English, Confidence: 0}
	}

	var letters, cyr, arb, lat int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(cyrillic, r):
			cyr++
		case unicode.Is(arabic, r):
			arb++
		case unicode.Is(latin, r):
			lat++
		}
	}
	if letters == 0 {
		return Detection{Language: English, Confidence: 0.1}
	}

	total := float64(letters)
	if ratio := float64(cyr) / total; ratio > 0.5 {
		return Detection{Language: Russian, Confidence: scriptConfidence(ratio)}
	}
	if ratio := float64(arb) / total; ratio > 0.5 {
		return Detection{Language: Arabic, Confidence: scriptConfidence(ratio)}
	}
	if float64(lat)/total > 0.5 {
		return detectLatin(text)
	}
	return Detection{Language: English, Confidence: 0.3}
}

func scriptConfidence(ratio float64) float64 {
	return min(0.70+ratio*0.25, 0.95)
}

func detectLatin(text string) Detection {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	scores := map[Language]float64{}

	for _, raw := range words {
		w := strings.TrimFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) })
		for _, lang := range latinOrder {
			if _, ok := markerSets[lang][w]; ok {
				scores[lang]++
			}
		}
	}
	for _, r := range lower {
		switch {
		case strings.ContainsRune(frenchDiacritics, r):
			scores[French] += 2
		case strings.ContainsRune(spanishDiacritics, r):
			scores[Spanish] += 2
		case strings.ContainsRune(invertedMarks, r):
			scores[Spanish] += 3
		}
	}

	n := float64(max(len(words), 1))
	best, bestScore, second := English, -1.0, 0.0
	for _, lang := range latinOrder {
		s := scores[lang] / n
		switch {
		case s > bestScore:
			second = max(bestScore, 0)
			best, bestScore = lang, s
		case s > second:
			second = s
		}
	}
	if bestScore < 0.01 {
		return Detection{Language: English, Confidence: 0.4}
	}
	lead := bestScore - second
	return Detection{Language: best, Confidence: min(0.60+min(lead, 0.20), 0.85)}
}

const sentenceTerminators = ".!?؟۔。！？"

// SplitSentences cuts text after each terminator, dropping blank pieces.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if !strings.ContainsRune(sentenceTerminators, r) {
			continue
		}
		end := i + len(string(r))
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// DetectPerSentence runs detection on every sentence of a mixed-language text.
func DetectPerSentence(text string) []SentenceDetection {
	sentences := SplitSentences(text)
	out := make([]SentenceDetection, len(sentences))
	for i, s := range sentences {
		out[i] = SentenceDetection{Text: s, Detection: DetectLanguage(s)}
	}
	return out
}
