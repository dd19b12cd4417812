// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Content)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Len(t, msg.FormattedTime(), len(TimestampLayout))
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hi", 10, "hi"},
		{"newlines flattened", "a\nb", 10, "a b"},
		{"truncated", "abcdefghij", 6, "abc..."},
		{"tiny limit", "abcdef", 2, "ab"},
		{"unicode", "日本語のテキスト", 5, "日本..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewAssistantMessage(tc.content)
			assert.Equal(t, tc.want, msg.Preview(tc.maxLen))
		})
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.Equal(t, "You", RoleUser.DisplayName())
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("q1"))
	tr.Append(NewAssistantMessage("a1"))
	tr.Append(NewUserMessage("q2"))

	require.Equal(t, 3, tr.Len())
	snap := tr.Snapshot()
	assert.Equal(t, []string{"q1", "a1", "q2"}, []string{snap[0].Content, snap[1].Content, snap[2].Content})

	snap[0].Content = "changed"
	assert.Equal(t, "q1", tr.Messages[0].Content, "snapshot must not alias transcript storage")

	last, ok := tr.LastAssistantMessage()
	require.True(t, ok)
	assert.Equal(t, "a1", last.Content)
	assert.Equal(t, "q1", tr.Title())
}

func TestTranscript_EmptyTitle(t *testing.T) {
	tr := NewTranscript()
	_, ok := tr.LastAssistantMessage()
	assert.False(t, ok)
	assert.Equal(t, "New conversation", tr.Title())
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_JSONShape(t *testing.T) {
	h := History{NewTurn("q1", "a1")}.With(PendingTurn("q2"))

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `[["q1","a1"],["q2",null]]`, string(data))

	var empty History
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestHistory_WithDoesNotMutate(t *testing.T) {
	h := History{NewTurn("q1", "a1")}
	h2 := h.With(PendingTurn("q2"))

	assert.Len(t, h, 1)
	assert.Len(t, h2, 2)
}

func TestTurn_UnmarshalJSON(t *testing.T) {
	var h History
	require.NoError(t, json.Unmarshal([]byte(`[["q",null],[null,"a"],["only"]]`), &h))
	require.Len(t, h, 3)

	assert.Equal(t, "q", *h[0].User)
	assert.Nil(t, h[0].Assistant)
	assert.Nil(t, h[1].User)
	assert.Equal(t, "a", h[1].AssistantText())
	assert.Equal(t, "", h[2].AssistantText())

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "only", *last.User)

	var bad Turn
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &bad))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Source 1:", Label(0))
	assert.Equal(t, "Source 10:", Label(9))
}
