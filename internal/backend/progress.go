// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "context"

// Phase is a step of a send cycle that a caller may want to display.
type Phase int

const (
	// PhaseSubmit is the request that hands the question to the backend.
	PhaseSubmit Phase = iota

	// PhaseResult is the wait for the answer.
	PhaseResult
)

type phaseKey struct{}

// WithPhaseHook returns a context whose send cycle reports each phase to fn.
func WithPhaseHook(ctx context.Context, fn func(Phase)) context.Context {
	return context.WithValue(ctx, phaseKey{}, fn)
}

// reportPhase calls the hook installed on ctx, if any.
func reportPhase(ctx context.Context, p Phase) {
	if fn, ok := ctx.Value(phaseKey{}).(func(Phase)); ok && fn != nil {
		fn(p)
	}
}
