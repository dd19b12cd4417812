// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget implements the chat widget controller shared by every host.
//
// A Controller owns one transcript, one conversation history and the most
// recent source list. It runs at most one send cycle at a time and reports
// everything visible through a View, which the web page, the TUI and the line
// hosts implement.
//
// # Send cycle
//
//	idle -> awaiting-submit -> awaiting-result -> rendering -> idle
//
// Any failure renders a single assistant message and returns to idle.
// Controls are disabled for the duration and always re-enabled afterward.
package widget
