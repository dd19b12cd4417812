// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sources

import (
	"strings"

	"github.com/jeranaias/langchat/internal/model"
)

// =============================================================================
// TEXT-BLOCK GRAMMAR
// =============================================================================
//
//	block     = { line "\n" }
//	source    = "- **Source:** " value      ; opens a new entry, flushing the open one
//	text      = "  **Text:** " value        ; sets the open entry's text
//	continued = any other non-blank line    ; appended to the open entry's text
//
// Lines before the first source marker are ignored.

const (
	// SourceMarker starts a new source entry.
	SourceMarker = "- **Source:**"

	// TextMarker sets the text of the open entry.
	TextMarker = "  **Text:**"
)

// Parse extracts source documents from a text block. Entries are returned in
// the order they appear; duplicates are kept. Input without any source marker
// yields an empty, non-nil slice.
func Parse(block string) []model.SourceDocument {
	docs := make([]model.SourceDocument, 0)
	var current *model.SourceDocument

	flush := func() {
		if current != nil {
			docs = append(docs, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, SourceMarker):
			flush()
			// A marker without the separating space carries no value and opens nothing
			if value, ok := markerValue(line, SourceMarker); ok {
				current = &model.SourceDocument{Source: value}
			}

		case strings.HasPrefix(line, TextMarker):
			if value, ok := markerValue(line, TextMarker); ok && current != nil {
				current.Text = value
			}

		case current != nil && strings.TrimSpace(line) != "":
			// Every continuation is newline-prefixed, even onto empty text
			current.Text += "\n" + strings.TrimSpace(line)
		}
	}
	flush()

	return docs
}

// markerValue returns the trimmed remainder after "marker ".
func markerValue(line, marker string) (string, bool) {
	rest := strings.TrimPrefix(line, marker)
	if !strings.HasPrefix(rest, " ") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
