// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered, append-only log of messages shown to the user.
// It is not safe for concurrent use; the widget controller guards it.
type Transcript struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// NewTranscript creates an empty transcript with a generated ID.
func NewTranscript() *Transcript {
	return &Transcript{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Messages:  make([]Message, 0),
	}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.Messages = append(t.Messages, msg)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// Snapshot returns a copy of the messages that callers may keep.
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}

// LastAssistantMessage returns the most recent assistant message.
func (t *Transcript) LastAssistantMessage() (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleAssistant {
			return t.Messages[i], true
		}
	}
	return Message{}, false
}

// Title returns a short title derived from the first user message.
func (t *Transcript) Title() string {
	for _, msg := range t.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(50)
		}
	}
	return "New conversation"
}

// =============================================================================
// CONVERSATION HISTORY
// =============================================================================

// Turn is one [user, assistant] pair of the conversation history. Either slot
// may be absent; absent slots encode as JSON null.
type Turn struct {
	User      *string
	Assistant *string
}

// NewTurn creates a turn with both slots set.
func NewTurn(user, assistant string) Turn {
	return Turn{User: &user, Assistant: &assistant}
}

// PendingTurn creates a turn whose assistant slot is still empty.
func PendingTurn(user string) Turn {
	return Turn{User: &user}
}

// MarshalJSON encodes the turn as a two-element array.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*string{t.User, t.Assistant})
}

// UnmarshalJSON decodes a two-element array. Shorter arrays leave the missing
// slots empty; non-string entries are rejected.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var pair []*string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("turn must be an array of strings or nulls: %w", err)
	}
	*t = Turn{}
	if len(pair) > 0 {
		t.User = pair[0]
	}
	if len(pair) > 1 {
		t.Assistant = pair[1]
	}
	return nil
}

// AssistantText returns the assistant slot, or "" when absent.
func (t Turn) AssistantText() string {
	if t.Assistant == nil {
		return ""
	}
	return *t.Assistant
}

// History is the ordered conversation history echoed to backends that need it.
type History []Turn

// Clone returns a copy of the history. Slot strings are shared; they are
// never mutated in place.
func (h History) Clone() History {
	if h == nil {
		return History{}
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// With returns a copy of the history with turn appended.
func (h History) With(turn Turn) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, turn)
}

// Last returns the final turn, if any.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}

// MarshalJSON encodes an empty history as [] rather than null.
func (h History) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Turn(h))
}
