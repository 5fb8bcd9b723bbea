package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

// Punctuation stripped during title normalization, ASCII and full-width.
const titlePunct = "!?.,、。！？-()[]（）「」［］・："

// NormalizeTitle canonicalizes a title for exact-match comparison: all
// whitespace removed, punctuation stripped, full-width alphanumerics
// folded to half-width, lowercased. Idempotent.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsSpace(r) {
			continue
		}
		if strings.ContainsRune(titlePunct, r) {
			continue
		}
		// Full-width digits and Latin letters sit 0xFEE0 above their
		// half-width equivalents.
		if r >= '０' && r <= '９' || r >= 'Ａ' && r <= 'Ｚ' || r >= 'ａ' && r <= 'ｚ' {
			r -= 0xFEE0
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// normalizeLight strips punctuation and lowercases without width folding
// or whitespace removal. The similarity scorer uses this lighter form;
// keeping it separate from NormalizeTitle preserves the scorer's
// character distribution for mixed-width text.
func normalizeLight(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(titlePunct, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

var urlTail = regexp.MustCompile(`[?#].*$`)

// NormalizeURL canonicalizes a URL for identity comparison: lowercase,
// query and fragment stripped, trailing slash removed.
func NormalizeURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	u = urlTail.ReplaceAllString(u, "")
	return strings.TrimSuffix(u, "/")
}

// HashURL returns the hex md5 of the normalized URL, used as the
// same-batch identity key.
func HashURL(rawURL string) string {
	sum := md5.Sum([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}
