// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds the styled components for the terminal widget.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER AND STATUS
	// ==========================================================================

	Header      lipgloss.Style
	StatusBar   lipgloss.Style
	StatusIdle  lipgloss.Style
	StatusBusy  lipgloss.Style
	ShortcutKey lipgloss.Style
	Spinner     lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	Timestamp       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer lipgloss.Style
	InputDisabled  lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// SOURCES
	// ==========================================================================

	SourcePanel        lipgloss.Style
	SourcePanelFocused lipgloss.Style
	SourceLabel        lipgloss.Style
	SourceItem         lipgloss.Style
	SourceSelected     lipgloss.Style
	LinkStyle          lipgloss.Style

	// ==========================================================================
	// MODAL
	// ==========================================================================

	ModalBox   lipgloss.Style
	ModalTitle lipgloss.Style
	ModalField lipgloss.Style
	ModalHint  lipgloss.Style

	ErrorText lipgloss.Style
	Muted     lipgloss.Style
}

// NewTheme creates a theme. "dark" and "light" force the background; any
// other value detects it from the terminal.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ThemeDark:
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 2)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusIdle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(UserBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.AssistantBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(AssistantBubbleBorder).
		BorderLeft(true)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputDisabled = t.InputContainer.Foreground(TextMuted)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// Sources
	t.SourcePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SourcePanelFocused = t.SourcePanel.BorderForeground(Cyan)
	t.SourceLabel = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.SourceItem = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SourceSelected = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// ACCESSIBILITY: Underline gives links a non-color cue
	t.LinkStyle = lipgloss.NewStyle().Foreground(LinkColor).Underline(true)

	// Modal
	t.ModalBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.ModalTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.ModalField = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	t.ModalHint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ModalWidth returns the modal width for the current terminal width.
func (t *Theme) ModalWidth() int {
	w := t.Width * 3 / 4
	if w < 40 {
		w = t.Width - 4
	}
	if w < 20 {
		w = 20
	}
	return w
}
