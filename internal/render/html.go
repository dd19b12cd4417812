// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmutil "github.com/yuin/goldmark/util"

	"github.com/jeranaias/langchat/internal/model"
)

// =============================================================================
// HTML RENDERER
// =============================================================================

// HTML renders transcript messages for the web widget. Assistant content is
// markdown with highlighted code; user content is escaped text.
type HTML struct {
	md        goldmark.Markdown
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewHTML creates an HTML renderer using the named chroma style.
// SECURITY: goldmark drops raw HTML unless WithUnsafe is set; it is not.
func NewHTML(codeStyleName string) *HTML {
	if codeStyleName == "" {
		codeStyleName = DefaultCodeStyle
	}
	r := &HTML{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     codeStyle(codeStyleName),
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(gmutil.Prioritized(&codeBlockRenderer{html: r}, 100)),
		),
	)
	return r
}

// Markdown converts assistant markdown to HTML. On conversion failure the
// content is returned escaped.
func (r *HTML) Markdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		log.Warn().Err(err).Msg("Markdown conversion failed, rendering as text")
		return template.HTML("<p>" + html.EscapeString(content) + "</p>")
	}
	return template.HTML(buf.String())
}

// Content renders a message body: markdown for the assistant, escaped
// literal text for the user.
func (r *HTML) Content(msg model.Message) template.HTML {
	if msg.Role == model.RoleAssistant {
		return r.Markdown(msg.Content)
	}
	return template.HTML(html.EscapeString(msg.Content))
}

// Message renders one transcript entry.
func (r *HTML) Message(msg model.Message) template.HTML {
	var b strings.Builder
	b.WriteString(`<div class="message `)
	b.WriteString(html.EscapeString(string(msg.Role)))
	b.WriteString(`"><div class="message-content">`)
	b.WriteString(string(r.Content(msg)))
	b.WriteString(`<div class="timestamp">`)
	b.WriteString(msg.FormattedTime())
	b.WriteString(`</div></div></div>`)
	return template.HTML(b.String())
}

// CSS returns the stylesheet for highlighted code, emitted once per page.
func (r *HTML) CSS() template.CSS {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		log.Warn().Err(err).Msg("Failed to write code stylesheet")
		return ""
	}
	return template.CSS(buf.String())
}

// =============================================================================
// CODE BLOCK NODE RENDERER
// =============================================================================

// codeBlockRenderer replaces goldmark's code block output with chroma markup.
type codeBlockRenderer struct {
	html *HTML
}

// RegisterFuncs implements renderer.NodeRenderer.
func (c *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, c.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, c.renderCodeBlock)
}

func (c *codeBlockRenderer) renderCodeBlock(w gmutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var language string
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		language = string(fenced.Language(source))
	}

	var code bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	var out bytes.Buffer
	if err := highlight(&out, c.html.formatter, c.html.style, code.String(), language); err != nil {
		// Unhighlighted but still escaped
		out.Reset()
		out.WriteString(`<pre><code>`)
		out.WriteString(html.EscapeString(code.String()))
		out.WriteString(`</code></pre>`)
	}
	if _, err := w.Write(out.Bytes()); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
