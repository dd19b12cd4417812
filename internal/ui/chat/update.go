// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/langchat/internal/export"
	"github.com/jeranaias/langchat/internal/widget"
)

// Layout constants used to size the viewport.
const (
	headerHeight    = 1
	inputHeight     = 2
	statusHeight    = 1
	sourceMaxHeight = 8
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.resize()
		m.updateViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	// Widget view calls
	case AppendMsg:
		m.messages = append(m.messages, msg.Message)
		m.updateViewport()
		return m, nil

	case ControlsMsg:
		m.enabled = msg.Enabled
		return m, nil

	case FocusMsg:
		m.focus = focusInput
		return m, m.input.Focus()

	case SourcesMsg:
		m.docs = msg.Docs
		m.selected = 0
		m.resize()
		return m, nil

	case ModalMsg:
		modal := msg
		m.modal = &modal
		return m, nil

	case StateMsg:
		m.state = msg.State
		return m, nil

	// Command results
	case SendDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, widget.ErrBusy) {
			cmd := m.setStatus("Request failed")
			return m, cmd
		}
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			cmd := m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err))
			return m, cmd
		}
		cmd := m.setStatus("Exported to " + msg.Path)
		return m, cmd

	case CopyDoneMsg:
		if msg.Err != nil {
			cmd := m.setStatus("Clipboard unavailable")
			return m, cmd
		}
		cmd := m.setStatus("Copied last reply")
		return m, cmd

	case StatusMsg:
		cmd := m.setStatus(msg.Text)
		return m, cmd

	case clearStatusMsg:
		// Only the newest status clears itself
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys first
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyCmd()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	}

	// The modal swallows everything except close
	if m.modal != nil {
		if key.Matches(msg, m.keys.Close) || key.Matches(msg, m.keys.Send) {
			m.modal = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		return m.toggleFocus()
	}

	if m.focus == focusSources {
		return m.handleSourceKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusSources || len(m.docs) == 0 {
		m.focus = focusInput
		return m, m.input.Focus()
	}
	m.focus = focusSources
	m.input.Blur()
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Send) {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" || !m.enabled {
			return m, nil
		}
		m.input.Reset()
		m.statusMsg = ""
		// Disable right away so a fast second enter cannot queue a send
		m.enabled = false
		return m, m.sendCmd(text)
	}

	if !m.enabled {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSourceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.focus = focusInput
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.docs)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Send):
		return m, m.openSourceCmd(m.selected)
	case key.Matches(msg, m.keys.OpenSource):
		n := int(msg.String()[0] - '0')
		if n <= len(m.docs) {
			m.selected = n - 1
			return m, m.openSourceCmd(n - 1)
		}
	}
	return m, nil
}

// statusTTL is how long a status line stays up.
const statusTTL = 5 * time.Second

// clearStatusMsg expires the status line set with the same seq.
type clearStatusMsg struct {
	seq int
}

// setStatus shows text in the status bar and schedules its removal.
func (m *Model) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.statusMsg = text
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// resize recomputes component sizes for the current window.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	sourceHeight := 0
	if len(m.docs) > 0 {
		sourceHeight = len(m.docs) + 2
		if sourceHeight > sourceMaxHeight {
			sourceHeight = sourceMaxHeight
		}
	}

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - sourceHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.input.Width = calculateContentWidth(m.width, 4)
}

// =============================================================================
// CLIPBOARD AND EXPORT
// =============================================================================

func (m Model) copyCmd() tea.Cmd {
	reply, ok := m.lastReply()
	if !ok {
		return func() tea.Msg { return StatusMsg{Text: "Nothing to copy"} }
	}
	return func() tea.Msg {
		return CopyDoneMsg{Err: copyToClipboard(reply)}
	}
}

func (m Model) exportCmd() tea.Cmd {
	transcript := m.controller.Transcript()
	dir := m.exportDir
	return func() tea.Msg {
		opts := export.DefaultOptions()
		if dir != "" {
			opts.OutputDir = dir
		}
		path, err := export.ToFile(transcript, export.NewMarkdownExporter(opts), opts)
		if err != nil {
			log.Warn().Err(err).Msg("Transcript export failed")
		}
		return ExportDoneMsg{Path: path, Err: err}
	}
}
