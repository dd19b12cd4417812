// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/langchat/internal/model"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// DefaultWordWrap is the wrap width used when none is configured.
const DefaultWordWrap = 80

// Terminal renders transcript messages for terminal hosts.
type Terminal struct {
	md    *glamour.TermRenderer
	plain bool
}

// NewTerminal creates a terminal renderer. theme is "dark", "light", "plain"
// or anything else to detect the background. Without a usable markdown
// renderer, output falls back to plain text.
func NewTerminal(theme string, wordWrap int) *Terminal {
	if wordWrap <= 0 {
		wordWrap = DefaultWordWrap
	}

	if theme == "plain" || termenv.EnvNoColor() {
		return &Terminal{plain: true}
	}

	style := theme
	if style != "dark" && style != "light" {
		style = "light"
		if termenv.HasDarkBackground() {
			style = "dark"
		}
	}

	// USABILITY: Renders markdown replies with syntax highlighting and formatting.
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return &Terminal{plain: true}
	}
	return &Terminal{md: md}
}

// Markdown renders assistant markdown. Returns the content unchanged when
// rendering fails.
func (t *Terminal) Markdown(content string) string {
	if t.plain || t.md == nil {
		return content
	}
	rendered, err := t.md.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// Content renders a message body: markdown for the assistant, verbatim for
// the user.
func (t *Terminal) Content(msg model.Message) string {
	if msg.Role == model.RoleAssistant {
		return t.Markdown(msg.Content)
	}
	return msg.Content
}

// Message renders a message with a "Name  15:04" header line.
func (t *Terminal) Message(msg model.Message) string {
	return fmt.Sprintf("%s  %s\n%s", msg.Role.DisplayName(), msg.FormattedTime(), t.Content(msg))
}

// SourceList renders the numbered source list, one entry per line.
func SourceList(docs []model.SourceDocument) string {
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(model.Label(i))
		b.WriteByte(' ')
		b.WriteString(doc.Source)
	}
	return b.String()
}

// SourceDetail renders one source the way the modal shows it.
func SourceDetail(doc model.SourceDocument) string {
	return "Source: " + doc.Source + "\nText: " + doc.Text
}
