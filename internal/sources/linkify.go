// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sources

import (
	"html"
	"regexp"
	"strings"
)

// urlPattern matches bare http(s) URLs up to whitespace or a quote.
var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// Linkify wraps every bare http(s) URL in text as an anchor opening in a new
// tab. Surrounding text is returned untouched, so callers rendering untrusted
// text should use LinkifyEscaped.
func Linkify(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, anchor)
}

// LinkifyFunc replaces every bare http(s) URL in text with wrap(url). It is
// used by hosts that highlight links without emitting HTML.
func LinkifyFunc(text string, wrap func(url string) string) string {
	return urlPattern.ReplaceAllStringFunc(text, wrap)
}

// SECURITY: Backend text is untrusted and ends up in HTML.
//
// LinkifyEscaped is Linkify for HTML output: URLs are matched on the raw text,
// then every segment (URLs included) is HTML-escaped before being emitted.
func LinkifyEscaped(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		b.WriteString(anchor(html.EscapeString(text[loc[0]:loc[1]])))
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

func anchor(url string) string {
	return `<a href="` + url + `" target="_blank">` + url + `</a>`
}
