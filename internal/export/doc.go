// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to Markdown, HTML and JSON.
//
// # Key Types
//
//   - Exporter: converts a transcript to bytes in one format
//   - Options: metadata, timestamps, theme and output directory
//
// # Usage
//
//	exporter, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(controller.Transcript(), exporter, nil)
package export
