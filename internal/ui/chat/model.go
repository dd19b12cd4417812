// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/ui/styles"
	"github.com/jeranaias/langchat/internal/widget"
)

// focusArea is the part of the screen that receives keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusSources
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat model.
type Options struct {
	Controller     *widget.Controller
	Theme          *styles.Theme
	Renderer       *render.Terminal
	ExportDir      string
	ShowTimestamps bool
	Title          string

	// Context bounds send cycles; it defaults to context.Background().
	Context context.Context
}

// Model is the Bubble Tea model for the terminal widget.
type Model struct {
	ctx        context.Context
	controller *widget.Controller
	theme      *styles.Theme
	renderer   *render.Terminal
	keys       KeyMap

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Widget state mirrored from the controller
	messages []model.Message
	docs     []model.SourceDocument
	modal    *ModalMsg
	enabled  bool
	state    widget.State

	// Source list
	focus    focusArea
	selected int

	// Status
	title          string
	statusMsg      string
	statusSeq      int
	exportDir      string
	showTimestamps bool
}

// New creates a chat model.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII-compatible animation
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewTerminal("plain", 0)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	title := opts.Title
	if title == "" {
		title = "langchat"
	}

	sp.Style = theme.Spinner

	return Model{
		ctx:            ctx,
		controller:     opts.Controller,
		theme:          theme,
		renderer:       renderer,
		keys:           DefaultKeyMap(),
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		enabled:        true,
		state:          widget.StateIdle,
		title:          title,
		exportDir:      opts.ExportDir,
		showTimestamps: opts.ShowTimestamps,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd runs one send cycle off the event loop. The controller reports
// progress back through ProgramView.
func (m Model) sendCmd(text string) tea.Cmd {
	c, ctx := m.controller, m.ctx
	return func() tea.Msg {
		return SendDoneMsg{Err: c.Send(ctx, text)}
	}
}

// openSourceCmd opens source i. The modal arrives as a ModalMsg.
func (m Model) openSourceCmd(i int) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		if err := c.OpenSource(i); err != nil {
			return StatusMsg{Text: err.Error()}
		}
		return nil
	}
}

// lastReply returns the content of the most recent assistant message.
func (m Model) lastReply() (string, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == model.RoleAssistant {
			return m.messages[i].Content, true
		}
	}
	return "", false
}

// updateViewport re-renders the transcript and scrolls to the bottom.
func (m *Model) updateViewport() {
	width := calculateContentWidth(m.viewport.Width, 2)

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg, width))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}
