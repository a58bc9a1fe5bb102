package voice

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	fencedCodePattern   = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern   = regexp.MustCompile("`[^`]*`")
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

var markupReplacer = strings.NewReplacer(
	"*", " ",
	"_", " ",
	"#", " ",
	"|", " ",
	"~", " ",
	"<", " ",
	">", " ",
)

// SpeakableText strips markdown, links and symbol glyphs from a reply so a
// speech engine does not read them out. The printed reply keeps its markup.
func SpeakableText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	raw = fencedCodePattern.ReplaceAllString(raw, " ")
	raw = inlineCodePattern.ReplaceAllString(raw, " ")
	raw = markdownLinkPattern.ReplaceAllString(raw, "$1")
	raw = urlPattern.ReplaceAllString(raw, " ")
	raw = markupReplacer.Replace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	space := true
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			if !space {
				b.WriteByte(' ')
				space = true
			}
		case unicode.IsControl(r), r == '\u200d', r == '\ufe0f':
		case unicode.In(r, unicode.So, unicode.Sm, unicode.Sk):
		case unicode.IsPunct(r) && !spokenPunctuation(r):
			if !space {
				b.WriteByte(' ')
				space = true
			}
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return strings.TrimSpace(b.String())
}

// spokenPunctuation is the set an engine uses for pauses and intonation.
func spokenPunctuation(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ':', ';', '\'', '"', '-', '(', ')', '\u0964':
		return true
	}
	return false
}
