package protocol

import "time"

// Segment type tags. The color table in pkg/render and the classifier in the
// pipeline service both key on these.
const (
	SegmentStraight = "straight"
	SegmentArc      = "arc"
	SegmentJunction = "junction"
	SegmentCorner   = "corner"
)

// SurfaceMesh is the raw triangulated geometry of one session.
type SurfaceMesh struct {
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][3]int32   `json:"faces"`
}

// IsEmpty reports whether the mesh has no renderable geometry.
func (m *SurfaceMesh) IsEmpty() bool {
	return m == nil || len(m.Vertices) == 0 || len(m.Faces) == 0
}

// Polyline is a downsampled centerline: ordered points plus an optional
// explicit edge list. Without edges the nodes are connected consecutively.
type Polyline struct {
	Nodes [][3]float64 `json:"nodes"`
	Edges [][2]int     `json:"edges,omitempty"`
}

// Segment is one geometrically coherent piece of the mesh skeleton.
type Segment struct {
	ID          int       `json:"id"`
	Type        string    `json:"type"`
	Length      float64   `json:"length"`
	Curvature   float64   `json:"curvature"`
	Angle       float64   `json:"angle,omitempty"`
	Radius      float64   `json:"radius,omitempty"`
	NodeIDs     []int     `json:"node_ids"`
	FaceIDs     []int     `json:"face_ids,omitempty"`
	Downsampled Polyline  `json:"downsampled"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

type SegmentSummary struct {
	TotalSegments int            `json:"total_segments"`
	ByType        map[string]int `json:"by_type"`
}

// SegmentResult is the terminal payload of one segmentation run. Immutable
// once received; a later arrival fully replaces the prior one.
type SegmentResult struct {
	Segments []Segment      `json:"segments"`
	Summary  SegmentSummary `json:"summary"`
}

// SegmentIDs returns the set of segment identifiers present in the result.
func (r *SegmentResult) SegmentIDs() map[int]bool {
	ids := make(map[int]bool, len(r.Segments))
	for _, s := range r.Segments {
		ids[s.ID] = true
	}
	return ids
}

// ToolCall records one server-side tool invocation made while answering a
// query. Opaque to the client beyond display.
type ToolCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Output    string                 `json:"output,omitempty"`
}

// QueryResult is the terminal payload of one query run.
type QueryResult struct {
	Query        string     `json:"query"`
	Answer       string     `json:"answer"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	HighlightIDs []int      `json:"highlight_ids,omitempty"`
	Mode         string     `json:"mode,omitempty"`
}

// ProgressEvent is one entry of the per-run progress log.
type ProgressEvent struct {
	Step        Phase                  `json:"step"`
	Detail      map[string]interface{} `json:"detail,omitempty"`
	Explanation string                 `json:"explanation,omitempty"`
	At          time.Time              `json:"at"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one transcript entry of a session.
type ChatMessage struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
