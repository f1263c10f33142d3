// Package util holds small internal helpers shared across packages: id
// generation, text normalization and cache-key hashing. Nothing here is part
// of the public API.
package util

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// Normalize lowercases, trims and collapses internal whitespace, and maps the
// accented vowels common in Italian input to their bare forms so keyword
// matching does not depend on how the client composed the text.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(deaccent(unicode.ToLower(r)))
	}
	return b.String()
}

func deaccent(r rune) rune {
	switch r {
	case 'à', 'á', 'â':
		return 'a'
	case 'è', 'é', 'ê':
		return 'e'
	case 'ì', 'í', 'î':
		return 'i'
	case 'ò', 'ó', 'ô':
		return 'o'
	case 'ù', 'ú', 'û':
		return 'u'
	}
	return r
}

// HashKey produces a short stable hex key from the given parts, used to key
// the classification cache by normalized message plus context flags.
func HashKey(parts ...string) string {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Tokens splits normalized text into word tokens, dropping punctuation.
func Tokens(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
