// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the ChatBackend capability and its two wire
// protocols.
//
// # Protocols
//
//   - rest: POST <base>/api/chat {"question": ...} returning
//     {"answer": ..., "sources": [{"source": ..., "text": ...}]} or {"detail": ...}
//   - queued: POST <base>/call/respond {"data": [question, history, placeholder]}
//     returning {"event_id": ...}, then GET <base>/call/respond/<event_id>
//     returning server-sent events whose "complete" payload is
//     [history, ..., sourcesText]
//
// # Usage
//
//	b, err := backend.New(backend.Options{
//		Protocol: backend.ProtocolQueued,
//		BaseURL:  "https://example.hf.space/gradio_api",
//	})
//	reply, err := b.SendQuestion(ctx, "How do I load a PDF?", history)
//
// # Errors
//
// Failures wrap ErrEventIDMissing, ErrReplyNotFound, ErrMalformedResponse,
// *StatusError or *DetailError. Only a DetailError carries user-facing text.
package backend
