// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Configuration constants for backend HTTP traffic.
const (
	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "langchat/1.0"
)

// newHTTPClient returns a pooled client. A zero timeout means no deadline
// other than the caller's context.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: timeout,
	}
}

// httpDoer runs requests with logging, size limits and optional retries.
type httpDoer struct {
	client     *http.Client
	maxRetries int
}

// requestFactory builds a fresh request for each attempt so bodies can be replayed.
type requestFactory func(ctx context.Context) (*http.Request, error)

// do executes the request, retrying transport failures and retryable statuses.
// It returns the status and the size-limited body.
func (d *httpDoer) do(ctx context.Context, newReq requestFactory) (int, []byte, error) {
	var lastErr error

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt)
			log.Debug().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("Retrying backend request")
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		status, body, err := d.once(ctx, newReq)
		if err == nil {
			return status, body, nil
		}
		// Out of attempts: hand a retryable status back to the caller as a response
		var statusErr *StatusError
		if errors.As(err, &statusErr) && attempt == d.maxRetries {
			return status, body, nil
		}
		if !isRetryable(ctx, err) {
			return status, body, err
		}
		lastErr = err
	}

	if d.maxRetries == 0 {
		return 0, nil, lastErr
	}
	return 0, nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// once performs a single attempt. Retryable statuses come back as *StatusError
// with the body still returned so callers can inspect it.
func (d *httpDoer) once(ctx context.Context, newReq requestFactory) (int, []byte, error) {
	req, err := newReq(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp.Body)
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend response")
	if err != nil {
		return resp.StatusCode, nil, err
	}

	statusErr := &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	if statusErr.Retryable() {
		return resp.StatusCode, body, statusErr
	}
	return resp.StatusCode, body, nil
}

// readResponse reads a response body with a size limit.
// SECURITY: Prevents memory exhaustion from oversized responses.
func readResponse(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return !errors.Is(err, ErrResponseTooLarge)
}

// calculateBackoff returns the exponential backoff delay for an attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// joinURL joins a base URL and a path with exactly one slash between them.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
