// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// DefaultCodeStyle is the chroma style used for highlighted code.
const DefaultCodeStyle = "github"

// selectLexer picks a lexer by fence language, then by content analysis.
func selectLexer(language, code string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// codeStyle returns the named chroma style or the fallback.
func codeStyle(name string) *chroma.Style {
	style := chromaStyles.Get(name)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return style
}

// highlight tokenizes code and writes it through formatter.
func highlight(w io.Writer, formatter chroma.Formatter, style *chroma.Style, code, language string) error {
	iterator, err := selectLexer(language, code).Tokenise(nil, code)
	if err != nil {
		return err
	}
	return formatter.Format(w, style, iterator)
}
