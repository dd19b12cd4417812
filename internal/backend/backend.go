// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/langchat/internal/model"
)

// =============================================================================
// CHAT BACKEND CAPABILITY
// =============================================================================

// Reply is a successful answer to one question.
type Reply struct {
	Text    string
	Sources []model.SourceDocument
}

// ChatBackend answers a question given the conversation so far.
// Implementations must not retain or mutate history.
type ChatBackend interface {
	SendQuestion(ctx context.Context, question string, history model.History) (*Reply, error)
}

// Protocol names a backend wire protocol.
type Protocol string

const (
	// ProtocolREST is a single JSON POST returning answer and sources.
	ProtocolREST Protocol = "rest"

	// ProtocolQueued is a submit POST followed by an SSE result GET.
	ProtocolQueued Protocol = "queued"
)

// Default endpoint paths.
const (
	DefaultChatPath           = "/api/chat"
	DefaultSubmitPath         = "/call/respond"
	DefaultResultPath         = "/call/respond"
	DefaultSourcesPlaceholder = "# Hello!"
)

// ParseProtocol converts a protocol name to a Protocol.
func ParseProtocol(name string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(name))); p {
	case ProtocolREST, ProtocolQueued:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownProtocol, name, ProtocolREST, ProtocolQueued)
	}
}

// Options configures a backend. Zero values fall back to the defaults above.
type Options struct {
	Protocol           Protocol
	BaseURL            string
	ChatPath           string
	SubmitPath         string
	ResultPath         string
	SourcesPlaceholder string
	Timeout            time.Duration
	MaxRetries         int

	// HTTPClient overrides the pooled client, mainly for tests.
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.ChatPath == "" {
		o.ChatPath = DefaultChatPath
	}
	if o.SubmitPath == "" {
		o.SubmitPath = DefaultSubmitPath
	}
	if o.ResultPath == "" {
		o.ResultPath = DefaultResultPath
	}
	if o.SourcesPlaceholder == "" {
		o.SourcesPlaceholder = DefaultSourcesPlaceholder
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

func (o Options) doer() *httpDoer {
	client := o.HTTPClient
	if client == nil {
		client = newHTTPClient(o.Timeout)
	}
	return &httpDoer{client: client, maxRetries: o.MaxRetries}
}

// New creates the backend selected by opts.Protocol. One protocol serves a
// deployment; responses of the two are never mixed.
func New(opts Options) (ChatBackend, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	switch opts.Protocol {
	case ProtocolREST, "":
		return NewREST(opts), nil
	case ProtocolQueued:
		return NewQueued(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, opts.Protocol)
	}
}
