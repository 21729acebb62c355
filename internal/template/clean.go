package template

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRe = regexp.MustCompile(`<[^>]*>`)
	// \s is ASCII-only; &nbsp; decodes to U+00A0 and must collapse too.
	spacesRe = regexp.MustCompile(`[\s\x{00A0}]+`)
)

// CleanText makes storefront-rendered fragments (prices, addresses) safe for
// a plain-text channel: markup stripped, entities decoded, whitespace
// collapsed to single spaces. Tags go before unescaping so entity-encoded
// angle brackets in the text survive as literals.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	text := tagRe.ReplaceAllString(s, "")
	text = html.UnescapeString(text)
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
