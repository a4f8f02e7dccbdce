// Package preprocess turns multilingual prose into entities and claims keyed
// by the same symbols the engine stores.
package preprocess

import "strings"

// Language is one of the languages the preprocessor understands.
type Language int

const (
	// Auto asks the preprocessor to detect the language itself.
	Auto Language = iota
	English
	Russian
	Arabic
	French
	Spanish
)

var languageCodes = map[Language]string{
	Auto:    "auto",
	English: "en",
	Russian: "ru",
	Arabic:  "ar",
	French:  "fr",
	Spanish: "es",
}

var languageNames = map[Language]string{
	Auto:    "Auto-detect",
	English: "English",
	Russian: "Russian",
	Arabic:  "Arabic",
	French:  "French",
	Spanish: "Spanish",
}

// Code returns the BCP 47 primary language subtag.
func (l Language) Code() string {
	if c, ok := languageCodes[l]; ok {
		return c
	}
	return "en"
}

// Name returns the English display name.
func (l Language) Name() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return "Unknown"
}

func (l Language) String() string { return l.Code() }

// ParseLanguage accepts a code such as "fr", "FR" or "es-MX".
func ParseLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	for l, c := range languageCodes {
		if c == code {
			return l, true
		}
	}
	return Auto, false
}

// Supported lists the concrete languages in a stable order.
func Supported() []Language {
	return []Language{English, Russian, Arabic, French, Spanish}
}
