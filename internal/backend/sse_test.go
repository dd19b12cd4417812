// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

type sseEvent struct {
	name string
	data string
}

func readAll(t *testing.T, input string) []sseEvent {
	t.Helper()
	r := NewSSEReader(strings.NewReader(input))
	var events []sseEvent
	for {
		name, data, err := r.ReadEvent()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, sseEvent{name, string(data)})
	}
}

func TestSSEReader_ReadEvent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []sseEvent
	}{
		{
			name:  "single event",
			input: "event: complete\ndata: [1]\n\n",
			want:  []sseEvent{{"complete", "[1]"}},
		},
		{
			name:  "events separated by blank lines",
			input: "event: generating\ndata: a\n\nevent: complete\ndata: b\n\n",
			want:  []sseEvent{{"generating", "a"}, {"complete", "b"}},
		},
		{
			name:  "multi-line data concatenated",
			input: "event: complete\ndata: one\ndata: two\n\n",
			want:  []sseEvent{{"complete", "onetwo"}},
		},
		{
			name:  "crlf and no trailing blank line",
			input: "event: complete\r\ndata: x\r\n",
			want:  []sseEvent{{"complete", "x"}},
		},
		{
			name:  "no space after colon",
			input: "event:complete\ndata:x\n\n",
			want:  []sseEvent{{"complete", "x"}},
		},
		{
			name:  "heartbeat without data dropped",
			input: "event: heartbeat\n\nevent: complete\ndata: y\n\n",
			want:  []sseEvent{{"complete", "y"}},
		},
		{
			name:  "comments and ids ignored",
			input: ": ping\nid: 7\nevent: complete\ndata: z\n\n",
			want:  []sseEvent{{"complete", "z"}},
		},
		{
			name:  "empty stream",
			input: "",
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, readAll(t, tc.input))
		})
	}
}
