// Package textnorm reduces arbitrary model or search text to something safe to
// speak and print.
package textnorm

import (
	"strings"
	"unicode"
)

// Script ranges kept on top of generic word characters so Indic replies survive
// normalization intact (vowel signs and viramas are not letters).
var keptScripts = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0900, Hi: 0x097F, Stride: 1}, // Devanagari
		{Lo: 0x0B80, Hi: 0x0BFF, Stride: 1}, // Tamil
		{Lo: 0x0C00, Hi: 0x0C7F, Stride: 1}, // Telugu
	},
}

// Normalize removes characters outside the allow-set, collapses whitespace and
// repeated punctuation, and trims the result.
//
// The allow-set is word characters (letters, marks, numbers, underscore),
// whitespace, the punctuation . , ! ? ; : ( ), apostrophes (' and U+2019) and
// the Devanagari, Tamil and Telugu blocks. Anything else is dropped without replacement.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	wrote := false
	pendingSpace := false
	var lastPunct rune

	flushSpace := func() {
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if wrote {
				pendingSpace = true
			}
		case isBasicPunctuation(r):
			if r == lastPunct && !pendingSpace {
				continue
			}
			flushSpace()
			b.WriteRune(r)
			wrote = true
			lastPunct = r
		case isWordRune(r):
			flushSpace()
			b.WriteRune(r)
			wrote = true
			lastPunct = 0
		}
	}

	return b.String()
}

func isWordRune(r rune) bool {
	if r == '_' {
		return true
	}
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	return unicode.Is(keptScripts, r)
}

func isBasicPunctuation(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '(', ')', '\'', '\u2019':
		return true
	default:
		return false
	}
}
