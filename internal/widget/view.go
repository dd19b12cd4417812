// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import "github.com/jeranaias/langchat/internal/model"

// View is the surface a host exposes to the controller. Calls arrive on the
// goroutine running Send; hosts that render elsewhere must hand them off.
type View interface {
	// AppendMessage renders msg at the end of the transcript and scrolls to it.
	AppendMessage(msg model.Message)

	// SetControlsEnabled enables or disables the input and send controls.
	SetControlsEnabled(enabled bool)

	// FocusInput returns focus to the input control.
	FocusInput()

	// ShowSources replaces the rendered source list.
	ShowSources(docs []model.SourceDocument)

	// ShowModal opens the detail modal for doc, labeled with its 1-based index.
	ShowModal(index int, doc model.SourceDocument)
}

// NopView discards every call. Embed it to implement only part of View.
type NopView struct{}

func (NopView) AppendMessage(model.Message) {}
func (NopView) SetControlsEnabled(bool) {}
func (NopView) FocusInput() {}
func (NopView) ShowSources([]model.SourceDocument) {}
func (NopView) ShowModal(int, model.SourceDocument) {}
