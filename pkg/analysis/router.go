// Package analysis answers natural-language questions about a segmentation
// result by routing to small deterministic tools.
package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"mesh-explorer-be/pkg/protocol"
)

// Response modes.
const (
	ModeTools   = "tools"   // at least one specific tool matched
	ModeSummary = "summary" // generic description fallback
)

// Outcome is everything a query run produces besides progress events.
type Outcome struct {
	Answer       string
	ToolCalls    []protocol.ToolCall
	HighlightIDs []int
	Mode         string
}

// Router matches query text against tool intents. Stateless; safe for
// concurrent use.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

var segmentRefPattern = regexp.MustCompile(`segment\s+#?(\d+)`)

type intent struct {
	name    string
	matches func(q string) bool
	run     func(r *protocol.SegmentResult, q string) (answer string, highlights []int, output string)
}

var intents = []intent{
	{
		name: "count_segments",
		matches: func(q string) bool {
			return strings.Contains(q, "how many") || strings.Contains(q, "count") ||
				strings.Contains(q, "number of")
		},
		run: runCount,
	},
	{
		name:    "filter_by_type",
		matches: func(q string) bool { return mentionedType(q) != "" },
		run:     runFilterByType,
	},
	{
		name: "longest_segment",
		matches: func(q string) bool {
			return strings.Contains(q, "longest") || strings.Contains(q, "largest") ||
				strings.Contains(q, "biggest")
		},
		run: runLongest,
	},
	{
		name: "total_length",
		matches: func(q string) bool {
			return strings.Contains(q, "total length") || strings.Contains(q, "overall length") ||
				strings.Contains(q, "how long")
		},
		run: runTotalLength,
	},
	{
		name: "radius_stats",
		matches: func(q string) bool {
			return strings.Contains(q, "radius") || strings.Contains(q, "diameter") ||
				strings.Contains(q, "thick")
		},
		run: runRadiusStats,
	},
}

func mentionedType(q string) string {
	for _, t := range []string{
		protocol.SegmentStraight,
		protocol.SegmentArc,
		protocol.SegmentJunction,
		protocol.SegmentCorner,
	} {
		if strings.Contains(q, t) {
			return t
		}
	}
	return ""
}

// Answer routes the query to every matching tool and assembles the result.
// The onTool callback (optional) fires once per tool invocation so the
// caller can emit tool_call progress events.
func (rt *Router) Answer(result *protocol.SegmentResult, query string, onTool func(call protocol.ToolCall)) Outcome {
	q := strings.ToLower(query)

	var out Outcome
	var answers []string
	seen := map[int]bool{}

	for _, it := range intents {
		if !it.matches(q) {
			continue
		}
		answer, highlights, output := it.run(result, q)
		call := protocol.ToolCall{
			Name:      it.name,
			Arguments: map[string]interface{}{"query": query},
			Output:    output,
		}
		out.ToolCalls = append(out.ToolCalls, call)
		if onTool != nil {
			onTool(call)
		}
		answers = append(answers, answer)
		for _, id := range highlights {
			if !seen[id] {
				seen[id] = true
				out.HighlightIDs = append(out.HighlightIDs, id)
			}
		}
	}

	if len(answers) > 0 {
		out.Answer = strings.Join(answers, " ")
		out.Mode = ModeTools
		sort.Ints(out.HighlightIDs)
		return out
	}

	out.Answer = describe(result)
	out.Mode = ModeSummary
	return out
}

func runCount(r *protocol.SegmentResult, q string) (string, []int, string) {
	if t := mentionedType(q); t != "" {
		n := r.Summary.ByType[t]
		return fmt.Sprintf("There are %d %s segments.", n, t), idsOfType(r, t),
			fmt.Sprintf("count[%s]=%d", t, n)
	}
	n := r.Summary.TotalSegments
	return fmt.Sprintf("The mesh contains %d segments in total.", n), nil,
		fmt.Sprintf("count=%d", n)
}

func runFilterByType(r *protocol.SegmentResult, q string) (string, []int, string) {
	t := mentionedType(q)
	ids := idsOfType(r, t)
	return fmt.Sprintf("%d segments are classified as %s: %s.", len(ids), t, formatIDs(ids)),
		ids, fmt.Sprintf("type=%s ids=%v", t, ids)
}

func runLongest(r *protocol.SegmentResult, q string) (string, []int, string) {
	if len(r.Segments) == 0 {
		return "There are no segments to compare.", nil, "empty"
	}
	best := r.Segments[0]
	for _, s := range r.Segments[1:] {
		if s.Length > best.Length {
			best = s
		}
	}
	return fmt.Sprintf("Segment %d is the longest (%s, %.2f units).", best.ID, best.Type, best.Length),
		[]int{best.ID}, fmt.Sprintf("id=%d length=%.2f", best.ID, best.Length)
}

func runTotalLength(r *protocol.SegmentResult, q string) (string, []int, string) {
	total := 0.0
	for _, s := range r.Segments {
		total += s.Length
	}
	return fmt.Sprintf("The combined centerline length is %.2f units.", total), nil,
		fmt.Sprintf("total=%.2f", total)
}

func runRadiusStats(r *protocol.SegmentResult, q string) (string, []int, string) {
	var min, max float64
	var minID, maxID int
	first := true
	for _, s := range r.Segments {
		if s.Radius <= 0 {
			continue
		}
		if first || s.Radius < min {
			min, minID = s.Radius, s.ID
		}
		if first || s.Radius > max {
			max, maxID = s.Radius, s.ID
		}
		first = false
	}
	if first {
		return "No radius estimates are available for this mesh.", nil, "no radii"
	}
	return fmt.Sprintf("Estimated radii range from %.2f (segment %d) to %.2f (segment %d).",
			min, minID, max, maxID),
		[]int{minID, maxID}, fmt.Sprintf("min=%.2f max=%.2f", min, max)
}

func describe(r *protocol.SegmentResult) string {
	if r == nil || len(r.Segments) == 0 {
		return "The mesh has not been segmented yet."
	}
	parts := make([]string, 0, len(r.Summary.ByType))
	for _, t := range []string{
		protocol.SegmentStraight,
		protocol.SegmentArc,
		protocol.SegmentJunction,
		protocol.SegmentCorner,
	} {
		if n := r.Summary.ByType[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}
	total := 0.0
	for _, s := range r.Segments {
		total += s.Length
	}
	return fmt.Sprintf("This geometry consists of %d segments (%s) with a combined centerline length of %.2f units.",
		r.Summary.TotalSegments, strings.Join(parts, ", "), total)
}

// SimilarSegmentRef extracts "similar to segment N" style references, used
// by the embedding-based similarity tool.
func SimilarSegmentRef(query string) (int, bool) {
	q := strings.ToLower(query)
	if !strings.Contains(q, "similar") && !strings.Contains(q, "like segment") {
		return 0, false
	}
	m := segmentRefPattern.FindStringSubmatch(q)
	if m == nil {
		return 0, false
	}
	var id int
	fmt.Sscanf(m[1], "%d", &id)
	return id, true
}

func idsOfType(r *protocol.SegmentResult, t string) []int {
	var ids []int
	for _, s := range r.Segments {
		if s.Type == t {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
