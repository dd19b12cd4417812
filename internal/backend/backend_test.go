// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/langchat/internal/model"
)

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestParseProtocol(t *testing.T) {
	p, err := ParseProtocol(" REST ")
	require.NoError(t, err)
	assert.Equal(t, ProtocolREST, p)

	p, err = ParseProtocol("queued")
	require.NoError(t, err)
	assert.Equal(t, ProtocolQueued, p)

	_, err = ParseProtocol("websocket")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestNew(t *testing.T) {
	b, err := New(Options{Protocol: ProtocolREST, BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &RESTBackend{}, b)

	b, err = New(Options{Protocol: ProtocolQueued, BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &QueuedBackend{}, b)

	_, err = New(Options{Protocol: ProtocolREST})
	assert.Error(t, err)

	_, err = New(Options{Protocol: "grpc", BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "http://h/api/chat", joinURL("http://h/", "/api/chat"))
	assert.Equal(t, "http://h/x/call/respond", joinURL("http://h/x", "call/respond"))
}

// =============================================================================
// REST BACKEND TESTS
// =============================================================================

func TestRESTBackend_Answer(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"Use **PyPDFLoader**.","sources":[{"source":"https://a.io","text":"x"},{"source":"B","text":"y"}]}`))
	}))
	defer server.Close()

	b := NewREST(Options{BaseURL: server.URL})
	reply, err := b.SendQuestion(context.Background(), "How do I load a PDF?", nil)
	require.NoError(t, err)

	assert.Equal(t, "How do I load a PDF?", got.Question)
	assert.Equal(t, "Use **PyPDFLoader**.", reply.Text)
	assert.Equal(t, []model.SourceDocument{{Source: "https://a.io", Text: "x"}, {Source: "B", Text: "y"}}, reply.Sources)
}

func TestRESTBackend_NoSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"hi"}`))
	}))
	defer server.Close()

	reply, err := NewREST(Options{BaseURL: server.URL}).SendQuestion(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.NotNil(t, reply.Sources)
	assert.Empty(t, reply.Sources)
}

func TestRESTBackend_Detail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"bad request", http.StatusBadRequest, `{"detail":"Query cannot be empty."}`, "Query cannot be empty."},
		{"server error", http.StatusInternalServerError, `{"detail":"LLM unavailable"}`, "LLM unavailable"},
		{"ok with detail", http.StatusOK, `{"detail":"quota exceeded"}`, "quota exceeded"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","question"],"msg":"field required"}]}`, `[{"loc":["body","question"],"msg":"field required"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewREST(Options{BaseURL: server.URL}).SendQuestion(context.Background(), "q", nil)
			var detail *DetailError
			require.ErrorAs(t, err, &detail)
			assert.Equal(t, tc.status, detail.Status)

			msg, ok := UserMessage(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, msg)
		})
	}
}

func TestRESTBackend_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantErr func(t *testing.T, err error)
	}{
		{name: "not json", status: http.StatusOK, body: "<html>", wantIs: ErrMalformedResponse},
		{name: "missing answer", status: http.StatusOK, body: `{"sources":[]}`, wantIs: ErrMalformedResponse},
		{
			name: "status without body", status: http.StatusBadGateway, body: "",
			wantErr: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusBadGateway, statusErr.Status)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewREST(Options{BaseURL: server.URL}).SendQuestion(context.Background(), "q", nil)
			require.Error(t, err)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
			if tc.wantErr != nil {
				tc.wantErr(t, err)
			}
			_, visible := UserMessage(err)
			assert.False(t, visible)
		})
	}
}

func TestRESTBackend_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewREST(Options{BaseURL: url}).SendQuestion(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestRESTBackend_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"question":"q"}`, string(body), "body must be replayed on retry")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"answer":"second time"}`))
	}))
	defer server.Close()

	reply, err := NewREST(Options{BaseURL: server.URL, MaxRetries: 1}).SendQuestion(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "second time", reply.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRESTBackend_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewREST(Options{BaseURL: server.URL}).SendQuestion(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// =============================================================================
// QUEUED BACKEND TESTS
// =============================================================================

// queuedServer fakes the submit/result pair. result is the SSE body.
func queuedServer(t *testing.T, eventID, result string, gotSubmit *[]json.RawMessage) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /call/respond", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Data []json.RawMessage `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if gotSubmit != nil {
			*gotSubmit = req.Data
		}
		if eventID == "" {
			w.Write([]byte(`{}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"event_id": eventID})
	})
	mux.HandleFunc("GET /call/respond/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, eventID, r.PathValue("id"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(result))
	})
	return httptest.NewServer(mux)
}

func TestQueuedBackend_Reply(t *testing.T) {
	result := "event: generating\ndata: null\n\n" +
		"event: complete\n" +
		`data: [[["earlier","before"],["How do I load a PDF?","Use PyPDFLoader."]], null, "- **Source:** https://a.io\n  **Text:** pdf docs"]` +
		"\n\n"

	var submitted []json.RawMessage
	server := queuedServer(t, "abc123", result, &submitted)
	defer server.Close()

	history := model.History{model.NewTurn("earlier", "before")}
	b := NewQueued(Options{BaseURL: server.URL})
	reply, err := b.SendQuestion(context.Background(), "How do I load a PDF?", history)
	require.NoError(t, err)

	assert.Equal(t, "Use PyPDFLoader.", reply.Text)
	assert.Equal(t, []model.SourceDocument{{Source: "https://a.io", Text: "pdf docs"}}, reply.Sources)

	require.Len(t, submitted, 3)
	assert.JSONEq(t, `"How do I load a PDF?"`, string(submitted[0]))
	assert.JSONEq(t, `[["earlier","before"],["How do I load a PDF?",null]]`, string(submitted[1]))
	assert.JSONEq(t, `"# Hello!"`, string(submitted[2]))

	assert.Len(t, history, 1, "caller history must not grow")
}

func TestQueuedBackend_ReportsPhases(t *testing.T) {
	server := queuedServer(t, "e1", "event: complete\ndata: [[[\"q\",\"a\"]]]\n\n", nil)
	defer server.Close()

	var phases []Phase
	ctx := WithPhaseHook(context.Background(), func(p Phase) { phases = append(phases, p) })
	_, err := NewQueued(Options{BaseURL: server.URL}).SendQuestion(ctx, "q", nil)
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseSubmit, PhaseResult}, phases)
}

func TestQueuedBackend_EventIDMissing(t *testing.T) {
	server := queuedServer(t, "", "", nil)
	defer server.Close()

	_, err := NewQueued(Options{BaseURL: server.URL}).SendQuestion(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrEventIDMissing)
}

func TestQueuedBackend_CustomPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /gradio_api/call/respond", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"event_id":"e1"}`))
	})
	mux.HandleFunc("GET /gradio_api/call/respond/e1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("event: complete\ndata: [[[\"q\",\"a\"]]]\n\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	b := NewQueued(Options{BaseURL: server.URL + "/gradio_api", SourcesPlaceholder: "x"})
	reply, err := b.SendQuestion(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", reply.Text)
	assert.Empty(t, reply.Sources)
}

func TestParseResultStream(t *testing.T) {
	tests := []struct {
		name        string
		stream      string
		wantText    string
		wantSources int
		wantErr     error
	}{
		{
			name:     "no sources element",
			stream:   "event: complete\ndata: [[[\"q\",\"a\"]]]\n\n",
			wantText: "a",
		},
		{
			name:     "empty sources string",
			stream:   "event: complete\ndata: [[[\"q\",\"a\"]], 1, \"\"]\n\n",
			wantText: "a",
		},
		{
			name:        "two sources",
			stream:      "event: complete\ndata: [[[\"q\",\"a\"]], 1, \"- **Source:** A\\n- **Source:** B\"]\n\n",
			wantText:    "a",
			wantSources: 2,
		},
		{
			name:     "later complete overrides earlier",
			stream:   "event: complete\ndata: [[[\"q\",\"first\"]]]\n\nevent: complete\ndata: [[[\"q\",\"second\"]]]\n\n",
			wantText: "second",
		},
		{
			name:     "bad payload skipped",
			stream:   "event: complete\ndata: [[[\"q\",\"good\"]]]\n\nevent: complete\ndata: {not json\n\n",
			wantText: "good",
		},
		{
			name:     "payload split across data lines",
			stream:   "event: complete\ndata: [[[\"q\",\"hel\ndata: lo\"]]]\n\n",
			wantText: "hello",
		},
		{
			name:    "no complete event",
			stream:  "event: generating\ndata: [1]\n\n",
			wantErr: ErrReplyNotFound,
		},
		{
			name:    "only error event",
			stream:  "event: error\ndata: \"Queue full\"\n\n",
			wantErr: ErrReplyNotFound,
		},
		{
			name:    "null reply",
			stream:  "event: complete\ndata: [[[\"q\",null]]]\n\n",
			wantErr: ErrReplyNotFound,
		},
		{
			name:    "empty history",
			stream:  "event: complete\ndata: [[]]\n\n",
			wantErr: ErrReplyNotFound,
		},
		{
			name:    "null payload",
			stream:  "event: complete\ndata: null\n\n",
			wantErr: ErrReplyNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := ParseResultStream(strings.NewReader(tc.stream))
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantText, reply.Text)
			assert.Len(t, reply.Sources, tc.wantSources)
		})
	}
}
