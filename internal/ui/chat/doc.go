// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the terminal host for the chat widget.
//
// The Bubble Tea model shows the transcript in a viewport, an input line, the
// source list and the source modal. A widget.Controller drives it through
// ProgramView, which turns every View call into a tea.Msg.
//
// # Key Bindings
//
//   - enter: send the input, or open the selected source
//   - tab: move focus between the input and the source list
//   - 1-9: open a source while the list has focus
//   - esc: close the modal or leave the source list
//   - ctrl+y: copy the last reply to the clipboard
//   - ctrl+s: export the transcript as Markdown
//   - ctrl+c: quit
//
// # Usage
//
//	view := chat.NewProgramView()
//	ctrl := widget.New(b, widget.WithView(view), widget.WithStateListener(view.StateChanged))
//	m := chat.New(chat.Options{Controller: ctrl, Theme: theme, Renderer: r})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	view.Attach(p)
//	_, err := p.Run()
package chat
