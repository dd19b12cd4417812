// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns transcript messages into HTML for the web widget and
// into styled text for terminal hosts.
//
// Assistant content is markdown. The HTML renderer converts it with goldmark
// (GFM, raw HTML dropped) and highlights code blocks with chroma using CSS
// classes; HTML.CSS returns the matching stylesheet. The terminal renderer
// uses glamour. User content is never interpreted: it is escaped for HTML
// and printed verbatim in the terminal.
package render
