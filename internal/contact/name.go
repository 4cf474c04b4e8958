package contact

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true,
	"jr": true, "sr": true, "ii": true, "iii": true, "pga": true,
}

// NameKey returns the collision key for a person name: accents folded,
// lowercased, punctuation and honorifics dropped. "José  O'Neil Jr." and
// "jose oneil" share a key.
func NameKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var words []string
	for _, w := range strings.Fields(strings.ToLower(folded)) {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, w)
		if w == "" || honorifics[w] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
