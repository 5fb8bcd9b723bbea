package dedupe

import (
	"math"
	"unicode"
)

// Similarity computes character-frequency cosine similarity between two
// strings, in [0,1]. Comparison is per character rather than per word
// because word segmentation is unreliable for Japanese text. A string
// that normalizes to nothing scores 0 against everything, including
// another empty string, so vacant input never suppresses anything.
func Similarity(a, b string) float64 {
	fa := charFrequencies(a)
	fb := charFrequencies(b)
	if len(fa) == 0 || len(fb) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for r, ca := range fa {
		dot += float64(ca) * float64(fb[r])
		magA += float64(ca) * float64(ca)
	}
	for _, cb := range fb {
		magB += float64(cb) * float64(cb)
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func charFrequencies(s string) map[rune]int {
	freq := make(map[rune]int)
	for _, r := range normalizeLight(s) {
		if unicode.IsSpace(r) {
			continue
		}
		freq[r]++
	}
	return freq
}
