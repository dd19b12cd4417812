// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
)

// Error variables for the failure kinds of a send cycle.
var (
	// ErrEventIDMissing indicates the submit response carried no event_id.
	ErrEventIDMissing = errors.New("event ID not found in response")

	// ErrReplyNotFound indicates no complete event yielded an assistant reply.
	ErrReplyNotFound = errors.New("assistant response not found")

	// ErrMalformedResponse indicates a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge indicates a body over MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrUnknownProtocol indicates an unsupported protocol name.
	ErrUnknownProtocol = errors.New("unknown backend protocol")
)

// StatusError is a non-2xx response that carried no usable body.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("backend returned HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend returned HTTP %d", e.Status)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.Status {
	case 429, 502, 503, 504:
		return true
	}
	return false
}

// DetailError is a REST response carrying a "detail" field. Its text is meant
// to be shown to the user in place of a reply.
type DetailError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	return fmt.Sprintf("backend detail (HTTP %d): %s", e.Status, e.Detail)
}

// UserMessage returns the text an error carries for the user, if any.
func UserMessage(err error) (string, bool) {
	var detail *DetailError
	if errors.As(err, &detail) {
		return detail.Detail, true
	}
	return "", false
}
