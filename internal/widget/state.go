// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

// State is the phase of the controller's send cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingSubmit
	StateAwaitingResult
	StateRendering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSubmit:
		return "awaiting-submit"
	case StateAwaitingResult:
		return "awaiting-result"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Busy reports whether a send cycle is in progress.
func (s State) Busy() bool {
	return s != StateIdle
}
