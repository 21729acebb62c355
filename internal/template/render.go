// Package template renders operator-authored message templates. Templates use
// literal {name} placeholders; substitution is plain string replacement, not
// text/template, because operators paste these into a settings form and must
// never be able to break rendering.
package template

import "regexp"

var placeholderRe = regexp.MustCompile(`\{[a-z_0-9]+\}`)

// Render substitutes every {name} placeholder from ctx. Unknown placeholders
// render as the empty string so a half-filled context never leaks braces into
// a customer message.
func Render(tmpl string, ctx map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(token string) string {
		return ctx[token[1:len(token)-1]]
	})
}
