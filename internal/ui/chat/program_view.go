// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/widget"
)

// ProgramView implements widget.View by forwarding each call to a running
// Bubble Tea program. Calls made before Attach are dropped.
type ProgramView struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewProgramView creates an unattached view.
func NewProgramView() *ProgramView {
	return &ProgramView{}
}

// Attach routes messages to p.
func (v *ProgramView) Attach(p *tea.Program) {
	v.AttachFunc(p.Send)
}

// AttachFunc routes messages to send.
func (v *ProgramView) AttachFunc(send func(tea.Msg)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.send = send
}

func (v *ProgramView) dispatch(msg tea.Msg) {
	v.mu.RLock()
	send := v.send
	v.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

// AppendMessage implements widget.View.
func (v *ProgramView) AppendMessage(msg model.Message) {
	v.dispatch(AppendMsg{Message: msg})
}

// SetControlsEnabled implements widget.View.
func (v *ProgramView) SetControlsEnabled(enabled bool) {
	v.dispatch(ControlsMsg{Enabled: enabled})
}

// FocusInput implements widget.View.
func (v *ProgramView) FocusInput() {
	v.dispatch(FocusMsg{})
}

// ShowSources implements widget.View.
func (v *ProgramView) ShowSources(docs []model.SourceDocument) {
	v.dispatch(SourcesMsg{Docs: docs})
}

// ShowModal implements widget.View.
func (v *ProgramView) ShowModal(index int, doc model.SourceDocument) {
	v.dispatch(ModalMsg{Index: index, Doc: doc})
}

// StateChanged is a widget state listener that forwards the state.
func (v *ProgramView) StateChanged(s widget.State) {
	v.dispatch(StateMsg{State: s})
}
