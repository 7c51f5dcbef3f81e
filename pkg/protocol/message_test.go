package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeResult(t *testing.T) {
	segmentPayload := `{"segments":[{"id":0,"type":"straight","length":4.2}],"summary":{"total_segments":1,"by_type":{"straight":1}}}`
	queryPayload := `{"query":"how many segments","answer":"There are 3 segments.","highlight_ids":[0,1,2],"mode":"tools"}`

	tests := []struct {
		name        string
		payload     string
		expecting   Expectation
		wantSegment bool
		wantQuery   bool
	}{
		{
			name:        "segment payload with segment expectation",
			payload:     segmentPayload,
			expecting:   ExpectSegment,
			wantSegment: true,
		},
		{
			name:      "query payload with query expectation",
			payload:   queryPayload,
			expecting: ExpectQuery,
			wantQuery: true,
		},
		{
			name:      "answer field wins over segment expectation",
			payload:   queryPayload,
			expecting: ExpectSegment,
			wantQuery: true,
		},
		{
			name:      "answer field wins with no expectation",
			payload:   queryPayload,
			expecting: ExpectNone,
			wantQuery: true,
		},
		{
			name:        "no answer and no expectation defaults to segments",
			payload:     segmentPayload,
			expecting:   ExpectNone,
			wantSegment: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, qry, err := DecodeResult(json.RawMessage(tt.payload), tt.expecting)
			if err != nil {
				t.Fatalf("DecodeResult returned error: %v", err)
			}
			if (seg != nil) != tt.wantSegment {
				t.Errorf("segment result presence = %v, want %v", seg != nil, tt.wantSegment)
			}
			if (qry != nil) != tt.wantQuery {
				t.Errorf("query result presence = %v, want %v", qry != nil, tt.wantQuery)
			}
		})
	}
}

func TestDecodeResultMalformed(t *testing.T) {
	if _, _, err := DecodeResult(json.RawMessage(`[1,2,3]`), ExpectSegment); err == nil {
		t.Error("expected error for non-object payload")
	}
}

func TestDecodeResultQueryFields(t *testing.T) {
	payload := `{"query":"longest segment","answer":"Segment 4 is longest.","tool_calls":[{"name":"longest_segment","output":"segment 4"}],"highlight_ids":[4],"mode":"tools"}`

	_, qry, err := DecodeResult(json.RawMessage(payload), ExpectQuery)
	if err != nil {
		t.Fatalf("DecodeResult returned error: %v", err)
	}
	if qry == nil {
		t.Fatal("expected a query result")
	}
	if qry.Answer != "Segment 4 is longest." {
		t.Errorf("unexpected answer: %q", qry.Answer)
	}
	if len(qry.ToolCalls) != 1 || qry.ToolCalls[0].Name != "longest_segment" {
		t.Errorf("unexpected tool calls: %+v", qry.ToolCalls)
	}
	if len(qry.HighlightIDs) != 1 || qry.HighlightIDs[0] != 4 {
		t.Errorf("unexpected highlights: %v", qry.HighlightIDs)
	}
}
