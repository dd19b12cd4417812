// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/langchat/internal/backend"
	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/util"
)

// FailureMessage is rendered in place of a reply when a send cycle fails.
const FailureMessage = "Sorry, something went wrong."

var (
	// ErrBusy indicates a send was attempted while another was in progress.
	ErrBusy = errors.New("a message is already being sent")

	// ErrNoSource indicates a source index outside the current list.
	ErrNoSource = errors.New("no such source")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs send cycles against a backend and keeps the widget state.
// It is safe for concurrent use; View calls are made without holding its lock.
type Controller struct {
	backend backend.ChatBackend
	view    View
	onState func(State)

	mu         sync.RWMutex
	transcript *model.Transcript
	history    model.History
	sources    []model.SourceDocument
	state      State
}

// Option configures a Controller.
type Option func(*Controller)

// WithView sets the host surface. Without it the controller renders nowhere.
func WithView(v View) Option {
	return func(c *Controller) {
		if v != nil {
			c.view = v
		}
	}
}

// WithStateListener registers fn to be called on every state transition.
func WithStateListener(fn func(State)) Option {
	return func(c *Controller) {
		c.onState = fn
	}
}

// New creates a controller for b.
func New(b backend.ChatBackend, opts ...Option) *Controller {
	c := &Controller{
		backend:    b,
		view:       NopView{},
		transcript: model.NewTranscript(),
		history:    model.History{},
		sources:    []model.SourceDocument{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// SEND CYCLE
// =============================================================================

// Send runs one send cycle for input. Blank input is ignored. A send while
// another is outstanding returns ErrBusy and changes nothing. On failure the
// returned error has already been rendered to the user as an assistant message.
func (c *Controller) Send(ctx context.Context, input string) error {
	// The question is sent and shown exactly as typed, minus surrounding space
	question := strings.TrimSpace(input)
	if util.NormalizeInput(input) == "" {
		return nil
	}

	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateAwaitingSubmit
	userMsg := model.NewUserMessage(question)
	c.transcript.Append(userMsg)
	history := c.history.Clone()
	c.mu.Unlock()
	c.notify(StateAwaitingSubmit)

	c.view.AppendMessage(userMsg)
	c.view.SetControlsEnabled(false)

	// RELIABILITY: Controls come back on every exit path
	defer func() {
		c.setState(StateIdle)
		c.view.SetControlsEnabled(true)
		c.view.FocusInput()
	}()

	start := time.Now()
	ctx = backend.WithPhaseHook(ctx, func(p backend.Phase) {
		if p == backend.PhaseResult {
			c.setState(StateAwaitingResult)
		}
	})

	reply, err := c.backend.SendQuestion(ctx, question, history)
	c.setState(StateRendering)

	if err != nil {
		text, ok := backend.UserMessage(err)
		if !ok {
			text = FailureMessage
		}
		log.Error().
			Err(err).
			Str("question", util.TruncateRunes(question, 80)).
			Dur("elapsed", time.Since(start)).
			Msg("Send cycle failed")
		c.appendAssistant(text)
		return fmt.Errorf("send: %w", err)
	}

	log.Info().
		Int("sources", len(reply.Sources)).
		Dur("elapsed", time.Since(start)).
		Msg("Reply received")

	c.mu.Lock()
	c.history = append(c.history, model.NewTurn(question, reply.Text))
	c.mu.Unlock()
	c.appendAssistant(reply.Text)

	if len(reply.Sources) > 0 {
		docs := make([]model.SourceDocument, len(reply.Sources))
		copy(docs, reply.Sources)
		c.mu.Lock()
		c.sources = docs
		c.mu.Unlock()
		c.view.ShowSources(docs)
	}
	return nil
}

// appendAssistant records and renders one assistant message.
func (c *Controller) appendAssistant(text string) {
	msg := model.NewAssistantMessage(text)
	c.mu.Lock()
	c.transcript.Append(msg)
	c.mu.Unlock()
	c.view.AppendMessage(msg)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed {
		c.notify(s)
	}
}

func (c *Controller) notify(s State) {
	log.Debug().Str("state", s.String()).Msg("Widget state changed")
	if c.onState != nil {
		c.onState(s)
	}
}

// =============================================================================
// SOURCES
// =============================================================================

// OpenSource shows the modal for the source at 0-based index i.
func (c *Controller) OpenSource(i int) error {
	doc, ok := c.Source(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSource, i+1)
	}
	c.view.ShowModal(i, doc)
	return nil
}

// Source returns the source at 0-based index i.
func (c *Controller) Source(i int) (model.SourceDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.sources) {
		return model.SourceDocument{}, false
	}
	return c.sources[i], true
}

// Sources returns a copy of the current source list.
func (c *Controller) Sources() []model.SourceDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.SourceDocument, len(c.sources))
	copy(out, c.sources)
	return out
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current send-cycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Busy reports whether a send cycle is outstanding.
func (c *Controller) Busy() bool {
	return c.State().Busy()
}

// Messages returns a copy of the transcript messages.
func (c *Controller) Messages() []model.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transcript.Snapshot()
}

// Transcript returns a copy of the transcript suitable for export.
func (c *Controller) Transcript() *model.Transcript {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &model.Transcript{
		ID:        c.transcript.ID,
		CreatedAt: c.transcript.CreatedAt,
		Messages:  c.transcript.Snapshot(),
	}
}

// History returns a copy of the conversation history.
func (c *Controller) History() model.History {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history.Clone()
}

// Reset starts a fresh transcript and history. It fails with ErrBusy while a
// send cycle is outstanding.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return ErrBusy
	}
	c.transcript = model.NewTranscript()
	c.history = model.History{}
	c.sources = []model.SourceDocument{}
	return nil
}
