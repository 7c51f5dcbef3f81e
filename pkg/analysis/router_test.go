package analysis

import (
	"strings"
	"testing"

	"mesh-explorer-be/pkg/protocol"
)

func sampleResult() *protocol.SegmentResult {
	return &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 0, Type: protocol.SegmentStraight, Length: 4.0, Radius: 0.5},
			{ID: 1, Type: protocol.SegmentArc, Length: 2.5, Radius: 1.2},
			{ID: 2, Type: protocol.SegmentStraight, Length: 6.0, Radius: 0.8},
			{ID: 3, Type: protocol.SegmentCorner, Length: 1.5},
		},
		Summary: protocol.SegmentSummary{
			TotalSegments: 4,
			ByType: map[string]int{
				protocol.SegmentStraight: 2,
				protocol.SegmentArc:      1,
				protocol.SegmentCorner:   1,
			},
		},
	}
}

func TestAnswerRoutesIntents(t *testing.T) {
	cases := []struct {
		name           string
		query          string
		wantMode       string
		wantTool       string
		wantAnswer     string
		wantHighlights []int
	}{
		{
			name:       "count all",
			query:      "How many segments are there?",
			wantMode:   ModeTools,
			wantTool:   "count_segments",
			wantAnswer: "4 segments in total",
		},
		{
			name:           "filter by type",
			query:          "show me the arc parts",
			wantMode:       ModeTools,
			wantTool:       "filter_by_type",
			wantAnswer:     "classified as arc",
			wantHighlights: []int{1},
		},
		{
			name:           "longest",
			query:          "which is the longest piece?",
			wantMode:       ModeTools,
			wantTool:       "longest_segment",
			wantAnswer:     "Segment 2 is the longest",
			wantHighlights: []int{2},
		},
		{
			name:       "total length",
			query:      "what is the total length?",
			wantMode:   ModeTools,
			wantTool:   "total_length",
			wantAnswer: "14.00 units",
		},
		{
			name:           "radius range",
			query:          "how thick does it get?",
			wantMode:       ModeTools,
			wantTool:       "radius_stats",
			wantHighlights: []int{0, 1},
		},
		{
			name:       "summary fallback",
			query:      "describe this geometry",
			wantMode:   ModeSummary,
			wantAnswer: "4 segments",
		},
	}

	r := NewRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := r.Answer(sampleResult(), tc.query, nil)
			if out.Mode != tc.wantMode {
				t.Errorf("mode = %q, want %q", out.Mode, tc.wantMode)
			}
			if tc.wantAnswer != "" && !strings.Contains(out.Answer, tc.wantAnswer) {
				t.Errorf("answer %q does not contain %q", out.Answer, tc.wantAnswer)
			}
			if tc.wantTool != "" {
				found := false
				for _, call := range out.ToolCalls {
					if call.Name == tc.wantTool {
						found = true
					}
				}
				if !found {
					t.Errorf("tool calls %v do not include %q", out.ToolCalls, tc.wantTool)
				}
			}
			if tc.wantHighlights != nil {
				if len(out.HighlightIDs) != len(tc.wantHighlights) {
					t.Fatalf("highlights = %v, want %v", out.HighlightIDs, tc.wantHighlights)
				}
				for i, id := range tc.wantHighlights {
					if out.HighlightIDs[i] != id {
						t.Errorf("highlights = %v, want %v", out.HighlightIDs, tc.wantHighlights)
					}
				}
			}
		})
	}
}

func TestAnswerCombinesMultipleIntents(t *testing.T) {
	r := NewRouter()
	out := r.Answer(sampleResult(), "how many straight segments, and which is the longest?", nil)

	if out.Mode != ModeTools {
		t.Fatalf("mode = %q, want %q", out.Mode, ModeTools)
	}
	if len(out.ToolCalls) < 2 {
		t.Fatalf("expected multiple tool calls, got %v", out.ToolCalls)
	}
	// Highlights are deduplicated and sorted: straight ids plus the longest.
	want := []int{0, 2}
	if len(out.HighlightIDs) != len(want) {
		t.Fatalf("highlights = %v, want %v", out.HighlightIDs, want)
	}
	for i, id := range want {
		if out.HighlightIDs[i] != id {
			t.Errorf("highlights = %v, want %v", out.HighlightIDs, want)
		}
	}
}

func TestAnswerFiresToolCallback(t *testing.T) {
	r := NewRouter()
	var calls []string
	r.Answer(sampleResult(), "count the corner segments", func(call protocol.ToolCall) {
		calls = append(calls, call.Name)
		if call.Output == "" {
			t.Errorf("tool %q reported no output", call.Name)
		}
	})
	if len(calls) == 0 {
		t.Fatal("expected at least one tool callback")
	}
}

func TestSummaryFallbackOnEmptyResult(t *testing.T) {
	r := NewRouter()
	out := r.Answer(&protocol.SegmentResult{}, "describe this geometry", nil)
	if out.Mode != ModeSummary {
		t.Errorf("mode = %q, want %q", out.Mode, ModeSummary)
	}
	if !strings.Contains(out.Answer, "not been segmented") {
		t.Errorf("unexpected empty-result answer %q", out.Answer)
	}
}

func TestSimilarSegmentRef(t *testing.T) {
	cases := []struct {
		query  string
		wantID int
		wantOK bool
	}{
		{"find parts similar to segment #2", 2, true},
		{"anything like segment 7?", 7, true},
		{"Similar to Segment #0", 0, true},
		{"similar shapes", 0, false},
		{"segment 3 details", 0, false},
	}
	for _, tc := range cases {
		id, ok := SimilarSegmentRef(tc.query)
		if ok != tc.wantOK || id != tc.wantID {
			t.Errorf("SimilarSegmentRef(%q) = (%d, %v), want (%d, %v)",
				tc.query, id, ok, tc.wantID, tc.wantOK)
		}
	}
}
