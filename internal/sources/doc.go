// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sources parses the text-block source format returned by queued
// backends and turns bare URLs into anchors.
//
// The text-block format looks like:
//
//	- **Source:** https://python.langchain.com/docs/loaders/pdf
//	  **Text:** PyPDFLoader loads a PDF into
//	  one document per page.
//	- **Source:** https://python.langchain.com/docs/loaders/csv
//	  **Text:** CSVLoader reads rows.
//
// Both functions are pure and independent of any host.
package sources
