// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/langchat/internal/backend"
	"github.com/jeranaias/langchat/internal/export"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/widget"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize bounds the send form.
	MaxRequestBodySize = 64 * 1024

	// MaxQueryLength is the longest accepted question, in bytes.
	MaxQueryLength = 16 * 1024
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures the web host.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	RateBurst          int
	TrustedProxies     []string
	CodeStyle          string
	SessionIdle        time.Duration
	Version            string

	// NewBackend creates the backend for each new session.
	NewBackend func() (backend.ChatBackend, error)
}

// Server hosts the chat widget over HTTP. Each browser session owns an
// independent controller.
type Server struct {
	opts      Options
	mux       *http.ServeMux
	server    *http.Server
	renderer  *render.HTML
	sessions  *sessionStore
	ips       *ClientIPResolver
	limiter   *RateLimiter
	css       []byte
	startTime time.Time

	// baseCtx outlives individual requests and ends on Shutdown.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu sync.Mutex
}

// New creates a server. opts.NewBackend is required.
func New(opts Options) (*Server, error) {
	if opts.NewBackend == nil {
		return nil, errors.New("server: backend factory is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:      opts,
		mux:       http.NewServeMux(),
		renderer:  render.NewHTML(opts.CodeStyle),
		sessions:  newSessionStore(opts.NewBackend, opts.SessionIdle),
		ips:       NewClientIPResolver(opts.TrustedProxies),
		startTime: time.Now(),
		baseCtx:   ctx,
		cancel:    cancel,
	}
	s.css = []byte(pageCSS + string(s.renderer.CSS()))

	if opts.RateLimitPerMinute > 0 {
		s.limiter = NewRateLimiter(opts.RateLimitPerMinute, opts.RateBurst)
	}

	s.setupRoutes()
	return s, nil
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("POST /send", s.handleSend)
	s.mux.HandleFunc("GET /static/chat.css", s.handleCSS)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	for _, format := range []string{"md", "html", "json"} {
		s.mux.HandleFunc("GET /export."+format, s.handleExport(format))
	}
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.ips),
	}
	if s.limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter, s.ips))
	}
	return Chain(middlewares...)(s.mux)
}

// ============================================================================
// PAGE HANDLERS
// ============================================================================

// handlePage renders the widget. ?source=N opens modal N.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session backend")
		http.Error(w, "Backend unavailable", http.StatusServiceUnavailable)
		return
	}

	if raw := r.URL.Query().Get("source"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || sess.controller.OpenSource(n-1) != nil {
			http.Error(w, "No such source", http.StatusNotFound)
			return
		}
	}

	state := sess.controller.State()
	data := pageData{
		Title:    "langchat",
		Messages: buildMessages(s.renderer, sess.controller.Messages()),
		Sources:  buildSources(sess.controller.Sources()),
		Modal:    buildModal(sess.view.takeModal()),
		Busy:     state.Busy(),
		State:    state.String(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render page")
	}
}

// handleSend runs one send cycle and redirects back to the page. A send
// while the session is busy changes nothing.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	message := r.PostForm.Get("message")
	if len(message) > MaxQueryLength {
		http.Error(w, "Message too long", http.StatusRequestEntityTooLarge)
		return
	}

	sess, err := s.sessions.get(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session backend")
		http.Error(w, "Backend unavailable", http.StatusServiceUnavailable)
		return
	}

	// RELIABILITY: A closed tab must not abort the cycle; shutdown does
	err = sess.controller.Send(s.baseCtx, message)
	if errors.Is(err, widget.ErrBusy) {
		log.Debug().Str("session", sess.id).Msg("Send ignored while busy")
	}

	http.Redirect(w, r, "/#scroll-anchor", http.StatusSeeOther)
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(s.css)
}

// handleExport downloads the session transcript in format.
func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.export(w, r, format)
	}
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, format string) {
	sess, ok := s.sessions.lookup(r)
	if !ok {
		http.Error(w, "No conversation", http.StatusNotFound)
		return
	}

	exporter, err := export.ForFormat(format, &export.Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		CodeStyle:         s.opts.CodeStyle,
	})
	if err != nil {
		http.Error(w, "Unknown format", http.StatusNotFound)
		return
	}

	data, err := exporter.Export(sess.controller.Transcript())
	if errors.Is(err, export.ErrEmptyTranscript) {
		http.Error(w, "No conversation", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exporter.MimeType()+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transcript`+exporter.FileExtension()+`"`)
	w.Write(data)
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.opts.Version,
		Uptime:   time.Since(s.startTime).Truncate(time.Second).String(),
		Sessions: s.sessions.count(),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Str("version", s.opts.Version).Msg("Server started")
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and cancels outstanding send cycles.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Server shutting down")
	s.cancel()
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode JSON response")
	}
}
