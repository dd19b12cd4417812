// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// SourceDocument is a cited reference returned alongside an assistant reply.
type SourceDocument struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Label returns the 1-based list label for the document at index i.
func Label(i int) string {
	return fmt.Sprintf("Source %d:", i+1)
}
