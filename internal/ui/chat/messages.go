// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/widget"
)

// =============================================================================
// WIDGET MESSAGES
// =============================================================================

// AppendMsg adds a rendered message to the transcript.
type AppendMsg struct {
	Message model.Message
}

// ControlsMsg enables or disables the input.
type ControlsMsg struct {
	Enabled bool
}

// FocusMsg returns focus to the input.
type FocusMsg struct{}

// SourcesMsg replaces the source list.
type SourcesMsg struct {
	Docs []model.SourceDocument
}

// ModalMsg opens the source modal.
type ModalMsg struct {
	Index int
	Doc   model.SourceDocument
}

// StateMsg reports a send-cycle state change.
type StateMsg struct {
	State widget.State
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// SendDoneMsg reports the end of a send cycle.
type SendDoneMsg struct {
	Err error
}

// ExportDoneMsg reports the result of ctrl+s.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// StatusMsg shows a transient line in the status bar.
type StatusMsg struct {
	Text string
}

// CopyDoneMsg reports the result of ctrl+y.
type CopyDoneMsg struct {
	Err error
}
