// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/langchat/internal/backend"
	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/ui/styles"
	"github.com/jeranaias/langchat/internal/widget"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubBackend struct {
	reply *backend.Reply
	err   error
}

func (s stubBackend) SendQuestion(context.Context, string, model.History) (*backend.Reply, error) {
	return s.reply, s.err
}

// harness collects what the controller sends to the program.
type harness struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (h *harness) send(msg tea.Msg) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

// drain feeds every collected message into m.
func (h *harness) drain(m Model) Model {
	h.mu.Lock()
	msgs := h.msgs
	h.msgs = nil
	h.mu.Unlock()

	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func newTestModel(t *testing.T, b backend.ChatBackend) (Model, *harness) {
	t.Helper()

	h := &harness{}
	view := NewProgramView()
	view.AttachFunc(h.send)

	c := widget.New(b, widget.WithView(view), widget.WithStateListener(view.StateChanged))
	m := New(Options{
		Controller:     c,
		Theme:          styles.NewTheme(styles.ThemeDark),
		Renderer:       render.NewTerminal("plain", 80),
		ExportDir:      t.TempDir(),
		ShowTimestamps: true,
	})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), h
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

// sendAndSettle types text, presses enter, runs the send cycle and applies
// everything the controller reported.
func sendAndSettle(t *testing.T, m Model, h *harness, text string) (Model, tea.Msg) {
	t.Helper()
	m = typeText(t, m, text)
	m, cmd := press(t, m, keyEnter)
	require.NotNil(t, cmd)
	assert.False(t, m.enabled, "input must lock as soon as enter is pressed")
	assert.Empty(t, m.input.Value())

	done := cmd()
	m = h.drain(m)
	updated, _ := m.Update(done)
	return updated.(Model), done
}

// =============================================================================
// SEND CYCLE
// =============================================================================

func TestModel_SendShowsReplyAndSources(t *testing.T) {
	b := stubBackend{reply: &backend.Reply{
		Text: "Use **PyPDFLoader**.",
		Sources: []model.SourceDocument{
			{Source: "https://docs.example.com/pdf", Text: "loader docs"},
			{Source: "notes.txt", Text: "more"},
		},
	}}
	m, h := newTestModel(t, b)

	m, done := sendAndSettle(t, m, h, "How do I load a PDF?")
	require.IsType(t, SendDoneMsg{}, done)
	assert.NoError(t, done.(SendDoneMsg).Err)

	require.Len(t, m.messages, 2)
	assert.Equal(t, model.RoleUser, m.messages[0].Role)
	assert.Equal(t, "How do I load a PDF?", m.messages[0].Content)
	assert.Equal(t, model.RoleAssistant, m.messages[1].Role)
	assert.Len(t, m.docs, 2)
	assert.True(t, m.enabled)
	assert.Equal(t, widget.StateIdle, m.state)

	out := m.View()
	assert.Contains(t, out, "How do I load a PDF?")
	assert.Contains(t, out, "Source 1: https://docs.example.com/pdf")
	assert.Contains(t, out, "Source 2: notes.txt")
}

func TestModel_SendFailureShowsApology(t *testing.T) {
	m, h := newTestModel(t, stubBackend{err: errors.New("boom")})

	m, done := sendAndSettle(t, m, h, "hello")
	assert.Error(t, done.(SendDoneMsg).Err)

	require.Len(t, m.messages, 2)
	assert.Equal(t, widget.FailureMessage, m.messages[1].Content)
	assert.Equal(t, "Request failed", m.statusMsg)
	assert.True(t, m.enabled)
	assert.Empty(t, m.docs)
}

func TestModel_BlankInputDoesNotSend(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "x"}})

	m = typeText(t, m, "   ")
	_, cmd := press(t, m, keyEnter)
	assert.Nil(t, cmd)
}

func TestModel_DisabledInputIgnoresKeys(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "x"}})

	updated, _ := m.Update(ControlsMsg{Enabled: false})
	m = updated.(Model)

	m = typeText(t, m, "hi")
	assert.Empty(t, m.input.Value())

	_, cmd := press(t, m, keyEnter)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "waiting for reply")
}

// =============================================================================
// SOURCE LIST AND MODAL
// =============================================================================

func TestModel_OpenSourceFromList(t *testing.T) {
	b := stubBackend{reply: &backend.Reply{
		Text: "answer",
		Sources: []model.SourceDocument{
			{Source: "a.md", Text: "first"},
			{Source: "https://b.example.com", Text: "second excerpt"},
		},
	}}
	m, h := newTestModel(t, b)
	m, _ = sendAndSettle(t, m, h, "q")

	m, _ = press(t, m, keyTab)
	assert.Equal(t, focusSources, m.focus)

	m, _ = press(t, m, keyDown)
	assert.Equal(t, 1, m.selected)

	m, cmd := press(t, m, keyEnter)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	m = h.drain(m)

	require.NotNil(t, m.modal)
	assert.Equal(t, 1, m.modal.Index)
	out := m.View()
	assert.Contains(t, out, "Source 2:")
	assert.Contains(t, out, "second excerpt")

	m, _ = press(t, m, keyEsc)
	assert.Nil(t, m.modal)
	assert.Equal(t, focusSources, m.focus)

	m, _ = press(t, m, keyEsc)
	assert.Equal(t, focusInput, m.focus)
}

func TestModel_NumberKeyOpensSource(t *testing.T) {
	b := stubBackend{reply: &backend.Reply{
		Text:    "answer",
		Sources: []model.SourceDocument{{Source: "a.md", Text: "first"}},
	}}
	m, h := newTestModel(t, b)
	m, _ = sendAndSettle(t, m, h, "q")
	m, _ = press(t, m, keyTab)

	// Out of range numbers do nothing
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Nil(t, cmd)

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	require.NotNil(t, cmd)
	cmd()
	m = h.drain(m)
	require.NotNil(t, m.modal)
	assert.Equal(t, "a.md", m.modal.Doc.Source)
}

func TestModel_TabWithoutSourcesKeepsInputFocus(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "x"}})

	m, _ = press(t, m, keyTab)
	assert.Equal(t, focusInput, m.focus)
}

// =============================================================================
// EXPORT
// =============================================================================

func TestModel_ExportWritesMarkdown(t *testing.T) {
	m, h := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "the answer"}})
	m, _ = sendAndSettle(t, m, h, "the question")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, ExportDoneMsg{}, msg)
	done := msg.(ExportDoneMsg)
	require.NoError(t, done.Err)

	data, err := os.ReadFile(done.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "the question")
	assert.Contains(t, string(data), "the answer")

	updated, _ := m.Update(done)
	assert.Contains(t, updated.(Model).statusMsg, "Exported to")
}

func TestModel_ExportEmptyTranscriptFails(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "x"}})

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	msg := cmd()
	assert.Error(t, msg.(ExportDoneMsg).Err)
}

func TestModel_CopyWithoutReply(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "x"}})

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	assert.Equal(t, StatusMsg{Text: "Nothing to copy"}, cmd())
}

func TestModel_StatusExpires(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{reply: &backend.Reply{Text: "x"}})

	updated, cmd := m.Update(StatusMsg{Text: "first"})
	m = updated.(Model)
	require.NotNil(t, cmd)
	stale := m.statusSeq

	updated, _ = m.Update(StatusMsg{Text: "second"})
	m = updated.(Model)

	// An older timer must not clear a newer status
	updated, _ = m.Update(clearStatusMsg{seq: stale})
	m = updated.(Model)
	assert.Equal(t, "second", m.statusMsg)

	updated, _ = m.Update(clearStatusMsg{seq: m.statusSeq})
	assert.Empty(t, updated.(Model).statusMsg)
}

// =============================================================================
// UTILITIES
// =============================================================================

func TestWrapText(t *testing.T) {
	assert.Equal(t, "hello\nworld", wrapText("hello world", 7))
	assert.Equal(t, "abcde\nfgh", wrapText("abcdefgh", 5))
	assert.Equal(t, "a\nb", wrapText("a\nb", 10))
	assert.Equal(t, "unchanged", wrapText("unchanged", 0))
}

func TestCalculateContentWidth(t *testing.T) {
	assert.Equal(t, 96, calculateContentWidth(100, 4))
	assert.Equal(t, 3, calculateContentWidth(2, 4))
}
