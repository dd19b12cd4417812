// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts, messages,
// conversation history and source documents.
//
// # Key Types
//
//   - Message: single transcript entry with role, content and timestamp
//   - Transcript: append-only ordered log of messages
//   - Turn, History: [user, assistant] pairs echoed to history-aware backends
//   - SourceDocument: cited reference (source identifier + excerpt)
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.NewUserMessage("How do I load a PDF?"))
//
//	h := model.History{}.With(model.PendingTurn("How do I load a PDF?"))
//	data, _ := json.Marshal(h) // [["How do I load a PDF?",null]]
package model
