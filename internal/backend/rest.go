// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/langchat/internal/model"
)

// =============================================================================
// REST BACKEND
// =============================================================================

// chatRequest is the body of POST <base>/api/chat.
type chatRequest struct {
	Question string `json:"question"`
}

// chatResponse is either an answer with sources or a detail message.
type chatResponse struct {
	Answer  *string                `json:"answer"`
	Sources []model.SourceDocument `json:"sources"`
	Detail  json.RawMessage        `json:"detail"`
}

// RESTBackend posts each question to a single JSON endpoint. It ignores
// conversation history.
type RESTBackend struct {
	url  string
	http *httpDoer
}

// NewREST creates a REST backend.
func NewREST(opts Options) *RESTBackend {
	opts = opts.withDefaults()
	return &RESTBackend{
		url:  joinURL(opts.BaseURL, opts.ChatPath),
		http: opts.doer(),
	}
}

// SendQuestion implements ChatBackend.
func (b *RESTBackend) SendQuestion(ctx context.Context, question string, _ model.History) (*Reply, error) {
	payload, err := json.Marshal(chatRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reportPhase(ctx, PhaseSubmit)
	status, body, err := b.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	reportPhase(ctx, PhaseResult)

	var resp chatResponse
	decodeErr := json.Unmarshal(body, &resp)

	// A detail field is shown to the user whatever the status
	if decodeErr == nil && len(resp.Detail) > 0 && string(resp.Detail) != "null" {
		return nil, &DetailError{Status: status, Detail: detailText(resp.Detail)}
	}

	if status < 200 || status > 299 {
		return nil, &StatusError{Status: status, Body: strings.TrimSpace(string(body))}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if resp.Answer == nil {
		return nil, fmt.Errorf("%w: missing answer", ErrMalformedResponse)
	}

	docs := resp.Sources
	if docs == nil {
		docs = []model.SourceDocument{}
	}
	return &Reply{Text: *resp.Answer, Sources: docs}, nil
}

// detailText renders a detail value. Strings are unquoted; structured
// validation details are shown as compact JSON.
func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}
