// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/sources"
	"github.com/jeranaias/langchat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if len(m.docs) > 0 {
		parts = append(parts, m.renderSources())
	}
	parts = append(parts, m.renderInput(), m.renderStatus())

	screen := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.modal != nil {
		// The modal replaces the screen rather than compositing over it
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
		)
	}
	return screen
}

func (m Model) renderHeader() string {
	title := util.TruncateWidth(m.title, calculateContentWidth(m.width, 4))
	return m.theme.Header.Width(m.width).Render(title)
}

// renderMessage renders one transcript entry: a label line followed by the
// body. User text is shown verbatim; assistant text goes through markdown.
func (m Model) renderMessage(msg model.Message, width int) string {
	var label string
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	} else {
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}
	if m.showTimestamps {
		label += "  " + m.theme.Timestamp.Render(msg.FormattedTime())
	}

	body := m.renderer.Content(msg)
	if msg.Role == model.RoleUser {
		body = m.theme.UserBubble.Render(wrapText(body, width-2))
	} else {
		body = wrapText(body, width)
	}
	return label + "\n" + body
}

// renderSources renders the numbered source list. The selection marker only
// shows while the list has focus.
func (m Model) renderSources() string {
	width := calculateContentWidth(m.width, 4)
	visible := sourceMaxHeight - 2

	// Keep the selection inside the visible window
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}

	var lines []string
	for i := start; i < len(m.docs) && i < start+visible; i++ {
		line := util.TruncateWidth(model.Label(i)+" "+m.docs[i].Source, width-2)
		switch {
		case m.focus == focusSources && i == m.selected:
			lines = append(lines, m.theme.SourceSelected.Render("> "+line))
		default:
			lines = append(lines, m.theme.SourceItem.Render("  "+line))
		}
	}

	style := m.theme.SourcePanel
	if m.focus == focusSources {
		style = m.theme.SourcePanelFocused
	}
	return style.Width(calculateContentWidth(m.width, 2)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderInput() string {
	if !m.enabled {
		return m.theme.InputDisabled.Width(calculateContentWidth(m.width, 2)).Render("> waiting for reply...")
	}
	return m.theme.InputContainer.Width(calculateContentWidth(m.width, 2)).Render(m.input.View())
}

func (m Model) renderStatus() string {
	var left string
	if m.state.Busy() {
		left = m.spinner.View() + " " + m.theme.StatusBusy.Render(m.state.String())
	} else {
		left = m.theme.StatusIdle.Render(m.state.String())
	}
	if m.statusMsg != "" {
		left += "  " + m.statusMsg
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+h.Desc)
	}
	right := strings.Join(hints, "  ")

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Narrow terminals drop the hints
		return m.theme.StatusBar.Width(m.width).Render(left)
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderModal renders the source modal. URLs in the source field are
// highlighted the way a browser would show links.
func (m Model) renderModal() string {
	width := m.theme.ModalWidth()
	inner := calculateContentWidth(width, 6)

	doc := m.modal.Doc
	source := sources.LinkifyFunc(doc.Source, func(url string) string {
		return m.theme.LinkStyle.Render(url)
	})

	var b strings.Builder
	b.WriteString(m.theme.ModalTitle.Render(model.Label(m.modal.Index)))
	b.WriteString("\n\n")
	b.WriteString(m.theme.ModalField.Render("Source: "))
	b.WriteString(wrapText(source, inner))
	b.WriteString("\n")
	b.WriteString(m.theme.ModalField.Render("Text: "))
	b.WriteString(wrapText(doc.Text, inner))
	b.WriteString("\n\n")
	b.WriteString(m.theme.ModalHint.Render(fmt.Sprintf("esc to close  (%d of %d)", m.modal.Index+1, len(m.docs))))

	return m.theme.ModalBox.Width(width).Render(b.String())
}
