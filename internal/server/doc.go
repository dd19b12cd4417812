// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server hosts the chat widget as a server-rendered web page.
//
// Each browser session (cookie langchat_session) owns its own widget
// controller, so transcripts and histories never mix. The page keeps the
// widget's DOM ids: send-button, query-input, chat-body, source-documents,
// docModal and modal-body.
//
// # Endpoints
//
//   - GET  /                - Render the widget; ?source=N opens modal N
//   - POST /send            - Run one send cycle (form field "message"), 303 to /
//   - GET  /export.{md,html,json} - Download the session transcript
//   - GET  /static/chat.css - Page and code highlighting styles
//   - GET  /health          - Health check
//
// # Middleware
//
//   - Panic recovery
//   - Security headers (CSP without inline script)
//   - Request logging
//   - Per-IP token bucket rate limiting with trusted proxy handling
//
// # Usage
//
//	srv, err := server.New(server.Options{
//		Addr:       "127.0.0.1:8080",
//		NewBackend: func() (backend.ChatBackend, error) { return backend.New(opts) },
//	})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
package server
