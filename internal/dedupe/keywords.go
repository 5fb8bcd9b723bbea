package dedupe

import (
	"strings"
	"unicode/utf8"
)

// Japanese particles, copulas and demonstratives that carry no topical
// signal. Domain-fixed, not configurable.
var stopWords = map[string]bool{
	"の": true, "に": true, "は": true, "を": true, "が": true,
	"と": true, "で": true, "も": true, "や": true, "へ": true,
	"から": true, "まで": true, "より": true, "など": true,
	"た": true, "て": true, "し": true, "する": true, "した": true,
	"され": true, "される": true, "です": true, "ます": true,
	"これ": true, "それ": true, "あれ": true, "この": true,
	"その": true, "あの": true, "ここ": true, "そこ": true,
}

// ExtractKeywords tokenizes text into a comparable keyword set:
// punctuation becomes whitespace, tokens shorter than two runes and
// stop-words are discarded, the rest are lowercased and deduplicated.
func ExtractKeywords(text string) map[string]bool {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(titlePunct, r) {
			return ' '
		}
		return r
	}, text)

	keywords := make(map[string]bool)
	for _, token := range strings.Fields(cleaned) {
		token = strings.ToLower(token)
		if utf8.RuneCountInString(token) < 2 {
			continue
		}
		if stopWords[token] {
			continue
		}
		keywords[token] = true
	}
	return keywords
}

// KeywordOverlap returns the number of shared keywords and the overlap
// ratio |common| / max(|a|, |b|, 1).
func KeywordOverlap(a, b map[string]bool) (common int, ratio float64) {
	for kw := range a {
		if b[kw] {
			common++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom < 1 {
		denom = 1
	}
	return common, float64(common) / float64(denom)
}
