// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/sources"
)

// =============================================================================
// QUEUED BACKEND
// =============================================================================

// Event names on the result stream.
const (
	EventComplete = "complete"
	EventError    = "error"
)

// submitRequest is the body of POST <base>/call/respond.
type submitRequest struct {
	Data [3]any `json:"data"`
}

// submitResponse carries the job identifier.
type submitResponse struct {
	EventID string `json:"event_id"`
}

// QueuedBackend submits a job and then reads its result as server-sent events.
type QueuedBackend struct {
	submitURL   string
	resultURL   string
	placeholder string
	http        *httpDoer
}

// NewQueued creates a queued backend.
func NewQueued(opts Options) *QueuedBackend {
	opts = opts.withDefaults()
	return &QueuedBackend{
		submitURL:   joinURL(opts.BaseURL, opts.SubmitPath),
		resultURL:   joinURL(opts.BaseURL, opts.ResultPath),
		placeholder: opts.SourcesPlaceholder,
		http:        opts.doer(),
	}
}

// SendQuestion implements ChatBackend. The history sent on the wire is history
// plus the pending [question, null] turn; history itself is left untouched.
func (b *QueuedBackend) SendQuestion(ctx context.Context, question string, history model.History) (*Reply, error) {
	reportPhase(ctx, PhaseSubmit)
	eventID, err := b.submit(ctx, question, history.With(model.PendingTurn(question)))
	if err != nil {
		return nil, err
	}
	log.Debug().Str("event_id", eventID).Msg("Queued job submitted")

	reportPhase(ctx, PhaseResult)

	body, err := b.fetchResult(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return ParseResultStream(bytes.NewReader(body))
}

// submit posts the job and returns its event ID.
func (b *QueuedBackend) submit(ctx context.Context, question string, wire model.History) (string, error) {
	payload, err := json.Marshal(submitRequest{Data: [3]any{question, wire, b.placeholder}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	status, body, err := b.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.submitURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("submit: %w", &StatusError{Status: status, Body: strings.TrimSpace(string(body))})
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("submit: %w: %v", ErrMalformedResponse, err)
	}
	if resp.EventID == "" {
		return "", ErrEventIDMissing
	}
	return resp.EventID, nil
}

// fetchResult reads the full SSE body of the job.
func (b *QueuedBackend) fetchResult(ctx context.Context, eventID string) ([]byte, error) {
	target := joinURL(b.resultURL, url.PathEscape(eventID))

	status, body, err := b.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("result: %w", &StatusError{Status: status, Body: strings.TrimSpace(string(body))})
	}
	return body, nil
}

// ParseResultStream scans every event of a result stream. The reply comes
// from the last complete event whose payload decodes; undecodable payloads
// are logged and skipped. Returns ErrReplyNotFound when none yields a reply.
func ParseResultStream(r io.Reader) (*Reply, error) {
	reader := NewSSEReader(r)
	var reply *Reply

	for {
		name, data, err := reader.ReadEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event stream: %w", err)
		}

		switch name {
		case EventComplete:
			parsed, err := parseCompletePayload(data)
			if err != nil {
				log.Warn().Err(err).Str("data", string(data)).Msg("Skipping undecodable complete event")
				continue
			}
			reply = parsed
		case EventError:
			log.Warn().Str("data", string(data)).Msg("Backend reported an error event")
		}
	}

	if reply == nil {
		return nil, ErrReplyNotFound
	}
	return reply, nil
}

// parseCompletePayload decodes [history, ..., sourcesText]. The reply is the
// assistant slot of the last history turn.
func parseCompletePayload(data []byte) (*Reply, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	var echoed model.History
	if err := json.Unmarshal(payload[0], &echoed); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrMalformedResponse, err)
	}
	last, ok := echoed.Last()
	if !ok || last.Assistant == nil {
		return nil, fmt.Errorf("%w: last turn has no reply", ErrMalformedResponse)
	}

	reply := &Reply{Text: *last.Assistant, Sources: []model.SourceDocument{}}

	if len(payload) > 2 {
		var block string
		if err := json.Unmarshal(payload[2], &block); err == nil && block != "" {
			reply.Sources = sources.Parse(block)
		}
	}
	return reply, nil
}
