// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/langchat/internal/backend"
	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/widget"
)

// ============================================================================
// SESSIONS
// ============================================================================

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "langchat_session"

// DefaultSessionIdle is how long an untouched session is kept.
const DefaultSessionIdle = 2 * time.Hour

// session is one browser's widget: its controller and page state.
type session struct {
	id         string
	controller *widget.Controller
	view       *pageView
	lastSeen   time.Time
}

// sessionStore owns every live session.
type sessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*session
	idle       time.Duration
	newBackend func() (backend.ChatBackend, error)
}

func newSessionStore(newBackend func() (backend.ChatBackend, error), idle time.Duration) *sessionStore {
	if idle <= 0 {
		idle = DefaultSessionIdle
	}
	return &sessionStore{
		sessions:   make(map[string]*session),
		idle:       idle,
		newBackend: newBackend,
	}
}

// get returns the session named by the request cookie, creating one and
// setting the cookie when it is missing or expired.
func (s *sessionStore) get(w http.ResponseWriter, r *http.Request) (*session, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(now)

	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions[c.Value]; ok {
			sess.lastSeen = now
			return sess, nil
		}
	}

	b, err := s.newBackend()
	if err != nil {
		return nil, err
	}
	view := &pageView{}
	sess := &session{
		id:         uuid.NewString(),
		controller: widget.New(b, widget.WithView(view)),
		view:       view,
		lastSeen:   now,
	}
	s.sessions[sess.id] = sess

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.Debug().Str("session", sess.id).Msg("Session created")
	return sess, nil
}

// lookup returns an existing session without creating one.
func (s *sessionStore) lookup(r *http.Request) (*session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.Value]
	return sess, ok
}

// evictLocked drops idle sessions that are not mid-send.
func (s *sessionStore) evictLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idle && !sess.controller.Busy() {
			delete(s.sessions, id)
		}
	}
}

// count returns the number of live sessions.
func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ============================================================================
// PAGE VIEW
// ============================================================================

// pageView is the web host's widget.View. The page is rendered from the
// controller on every request, so only the open modal needs remembering.
type pageView struct {
	widget.NopView

	mu    sync.Mutex
	modal *openModal
}

type openModal struct {
	index int
	doc   model.SourceDocument
}

// ShowModal implements widget.View.
func (v *pageView) ShowModal(index int, doc model.SourceDocument) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modal = &openModal{index: index, doc: doc}
}

// takeModal returns and clears the modal opened for this render.
func (v *pageView) takeModal() *openModal {
	v.mu.Lock()
	defer v.mu.Unlock()
	m := v.modal
	v.modal = nil
	return m
}
