package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesh-explorer-be/pkg/protocol"
)

func TestSegmentResultAppendsSystemNote(t *testing.T) {
	e := New(NewClient("http://localhost:3000", "t"), nil, nil, nil)

	var notified [][]protocol.ChatMessage
	e.OnTranscript = func(messages []protocol.ChatMessage) {
		notified = append(notified, messages)
	}

	result := &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 0, Type: protocol.SegmentStraight},
			{ID: 1, Type: protocol.SegmentArc},
			{ID: 2, Type: protocol.SegmentStraight},
		},
		Summary: protocol.SegmentSummary{TotalSegments: 3},
	}
	e.handleSegmentResult(result, true)

	transcript := e.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, protocol.RoleSystem, transcript[0].Role)
	assert.Equal(t, "Mesh segmented into 3 parts.", transcript[0].Text)
	require.Len(t, notified, 1, "transcript subscribers see the note immediately")
	assert.Equal(t, transcript[0].Text, notified[0][len(notified[0])-1].Text)
}

func TestQueryResultAppendsExchange(t *testing.T) {
	e := New(NewClient("http://localhost:3000", "t"), nil, nil, nil)

	e.handleQueryResult(&protocol.QueryResult{
		Query:  "how many segments?",
		Answer: "The mesh contains 3 segments in total.",
	})

	transcript := e.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, protocol.RoleUser, transcript[0].Role)
	assert.Equal(t, protocol.RoleAssistant, transcript[1].Role)
}
