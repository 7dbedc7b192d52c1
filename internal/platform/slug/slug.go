package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLen = 60

var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make turns a title into a lowercase ASCII file-name fragment. Accents are
// dropped, runs of anything else become one dash, and the result is cut at a
// dash once it passes maxLen.
func Make(input string) string {
	folded, _, err := transform.String(fold, input)
	if err != nil {
		folded = input
	}
	b := strings.Builder{}
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				if b.Len() >= maxLen {
					break
				}
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
