// Package pipeline implements the server-side mesh processing pipeline:
// centerline segmentation, polyline downsampling, and descriptor embedding.
package pipeline

import (
	"errors"
	"math"
	"sort"

	"mesh-explorer-be/pkg/geometry"
	"mesh-explorer-be/pkg/protocol"
)

var ErrEmptyMesh = errors.New("mesh has no vertices or faces")

// EmbedDim is the descriptor vector length. Fixed: stored vectors share one
// pgvector column width, so it is not a per-run parameter.
const EmbedDim = 64

// Params drive one segmentation run. Zero or nonsensical values are filled
// with defaults.
type Params struct {
	TargetStep      float64
	DownsampleNodes int
	Embed           bool
}

func (p *Params) applyDefaults() {
	if p.TargetStep <= 0 {
		p.TargetStep = 1.0
	}
	if p.DownsampleNodes < 2 {
		p.DownsampleNodes = 16
	}
}

// Run is one candidate segment while it moves through the pipeline stages.
type Run struct {
	ID        int
	Type      string
	NodeIDs   []int
	Points    [][3]float64
	FaceIDs   []int
	Length    float64
	Curvature float64
	Angle     float64 // total turning, degrees
	Radius    float64

	Downsampled protocol.Polyline
	Embedding   []float32
}

// Classification thresholds.
const (
	junctionValence = 8
	cornerTurnDeg   = 60.0
	arcCurvature    = 0.10 // radians of turning per length unit
)

type Segmenter struct{}

func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Split partitions the mesh into runs of roughly equal centerline length
// and classifies each one. The centerline is approximated by ordering the
// vertices along the mesh's longest axis.
func (s *Segmenter) Split(mesh *protocol.SurfaceMesh, params Params) ([]*Run, error) {
	params.applyDefaults()
	if mesh.IsEmpty() {
		return nil, ErrEmptyMesh
	}

	order := orderAlongPrincipalAxis(mesh.Vertices)
	valence := vertexValence(mesh)

	total := 0.0
	for i := 1; i < len(order); i++ {
		total += geometry.Dist(mesh.Vertices[order[i-1]], mesh.Vertices[order[i]])
	}

	bounds := geometry.NewBounds()
	for _, v := range mesh.Vertices {
		bounds.Extend(v)
	}
	runLength := params.TargetStep * bounds.Radius()
	if runLength <= 0 {
		runLength = total
	}
	count := int(math.Round(total / runLength))
	if count < 1 {
		count = 1
	}
	if count > len(order) {
		count = len(order)
	}

	runs := splitEvenly(order, count)

	out := make([]*Run, 0, len(runs))
	for i, nodeIDs := range runs {
		points := make([][3]float64, len(nodeIDs))
		for j, id := range nodeIDs {
			points[j] = mesh.Vertices[id]
		}
		r := &Run{
			ID:      i,
			NodeIDs: nodeIDs,
			Points:  points,
			Length:  geometry.PolylineLength(points),
		}
		turning := geometry.TotalTurning(points)
		r.Angle = turning * 180 / math.Pi
		if r.Length > 0 {
			r.Curvature = turning / r.Length
		}
		r.Radius = estimateRadius(points)
		r.Type = classify(r, nodeIDs, valence)
		out = append(out, r)
	}

	assignFaces(mesh, out)
	return out, nil
}

// Downsample reduces every run's polyline to at most n nodes with a
// consecutive edge list. Fewer than two nodes cannot form a polyline, so
// such values fall back to the default.
func (s *Segmenter) Downsample(runs []*Run, n int) {
	if n < 2 {
		n = 16
	}
	for _, r := range runs {
		nodes := geometry.Downsample(r.Points, n)
		edges := make([][2]int, 0, len(nodes))
		for i := 1; i < len(nodes); i++ {
			edges = append(edges, [2]int{i - 1, i})
		}
		r.Downsampled = protocol.Polyline{Nodes: nodes, Edges: edges}
	}
}

// Embed computes a fixed-length descriptor vector per run: scalar shape
// features, a type one-hot, and a direction histogram, L2-normalized. The
// layout needs 8 slots before the histogram starts, so dim is clamped.
func (s *Segmenter) Embed(runs []*Run, dim int) {
	if dim <= 0 {
		dim = EmbedDim
	}
	if dim < 8 {
		dim = 8
	}
	for _, r := range runs {
		r.Embedding = embedRun(r, dim)
	}
}

// Result assembles the final wire payload.
func (s *Segmenter) Result(runs []*Run) *protocol.SegmentResult {
	result := &protocol.SegmentResult{
		Segments: make([]protocol.Segment, 0, len(runs)),
		Summary: protocol.SegmentSummary{
			TotalSegments: len(runs),
			ByType:        map[string]int{},
		},
	}
	for _, r := range runs {
		result.Summary.ByType[r.Type]++
		result.Segments = append(result.Segments, protocol.Segment{
			ID:          r.ID,
			Type:        r.Type,
			Length:      r.Length,
			Curvature:   r.Curvature,
			Angle:       r.Angle,
			Radius:      r.Radius,
			NodeIDs:     r.NodeIDs,
			FaceIDs:     r.FaceIDs,
			Downsampled: r.Downsampled,
			Embedding:   r.Embedding,
		})
	}
	return result
}

// --- helpers ---

func orderAlongPrincipalAxis(vertices [][3]float64) []int {
	bounds := geometry.NewBounds()
	for _, v := range vertices {
		bounds.Extend(v)
	}
	axis := 0
	best := bounds.Max[0] - bounds.Min[0]
	for i := 1; i < 3; i++ {
		if ext := bounds.Max[i] - bounds.Min[i]; ext > best {
			best = ext
			axis = i
		}
	}

	order := make([]int, len(vertices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return vertices[order[a]][axis] < vertices[order[b]][axis]
	})
	return order
}

func splitEvenly(order []int, count int) [][]int {
	n := len(order)
	out := make([][]int, 0, count)
	for i := 0; i < count; i++ {
		start := i * n / count
		end := (i + 1) * n / count
		if end > start {
			chunk := make([]int, end-start)
			copy(chunk, order[start:end])
			out = append(out, chunk)
		}
	}
	return out
}

func vertexValence(mesh *protocol.SurfaceMesh) []int {
	neighbors := make([]map[int32]bool, len(mesh.Vertices))
	add := func(a, b int32) {
		if int(a) >= len(neighbors) || int(b) >= len(neighbors) {
			return
		}
		if neighbors[a] == nil {
			neighbors[a] = map[int32]bool{}
		}
		neighbors[a][b] = true
	}
	for _, f := range mesh.Faces {
		add(f[0], f[1])
		add(f[0], f[2])
		add(f[1], f[0])
		add(f[1], f[2])
		add(f[2], f[0])
		add(f[2], f[1])
	}
	valence := make([]int, len(mesh.Vertices))
	for i, nb := range neighbors {
		valence[i] = len(nb)
	}
	return valence
}

func classify(r *Run, nodeIDs []int, valence []int) string {
	for _, id := range nodeIDs {
		if id < len(valence) && valence[id] >= junctionValence {
			return protocol.SegmentJunction
		}
	}
	maxTurn := 0.0
	for i := 2; i < len(r.Points); i++ {
		d1 := geometry.Sub(r.Points[i-1], r.Points[i-2])
		d2 := geometry.Sub(r.Points[i], r.Points[i-1])
		if a := geometry.AngleBetween(d1, d2) * 180 / math.Pi; a > maxTurn {
			maxTurn = a
		}
	}
	if maxTurn > cornerTurnDeg {
		return protocol.SegmentCorner
	}
	if r.Curvature > arcCurvature {
		return protocol.SegmentArc
	}
	return protocol.SegmentStraight
}

// estimateRadius measures the mean deviation of the run's points from its
// endpoint chord, a cheap stand-in for a fitted tube radius.
func estimateRadius(points [][3]float64) float64 {
	if len(points) < 3 {
		return 0
	}
	a := points[0]
	dir := geometry.Normalize(geometry.Sub(points[len(points)-1], a))
	if geometry.Norm(dir) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range points[1 : len(points)-1] {
		ap := geometry.Sub(p, a)
		along := geometry.Dot(ap, dir)
		proj := [3]float64{a[0] + dir[0]*along, a[1] + dir[1]*along, a[2] + dir[2]*along}
		total += geometry.Dist(p, proj)
	}
	return total / float64(len(points)-2)
}

func assignFaces(mesh *protocol.SurfaceMesh, runs []*Run) {
	owner := make([]int, len(mesh.Vertices))
	for i := range owner {
		owner[i] = -1
	}
	for _, r := range runs {
		for _, id := range r.NodeIDs {
			if id >= 0 && id < len(owner) {
				owner[id] = r.ID
			}
		}
	}
	for faceID, f := range mesh.Faces {
		votes := map[int]int{}
		for _, v := range f {
			if int(v) < len(owner) && owner[v] >= 0 {
				votes[owner[v]]++
			}
		}
		best, bestVotes := -1, 0
		for run, n := range votes {
			if n > bestVotes || (n == bestVotes && run < best) {
				best, bestVotes = run, n
			}
		}
		if best >= 0 {
			runs[best].FaceIDs = append(runs[best].FaceIDs, faceID)
		}
	}
}

func embedRun(r *Run, dim int) []float32 {
	vec := make([]float64, dim)
	vec[0] = r.Length
	vec[1] = r.Curvature
	vec[2] = r.Angle / 180
	vec[3] = r.Radius

	typeOffset := 4
	switch r.Type {
	case protocol.SegmentStraight:
		vec[typeOffset] = 1
	case protocol.SegmentArc:
		vec[typeOffset+1] = 1
	case protocol.SegmentJunction:
		vec[typeOffset+2] = 1
	case protocol.SegmentCorner:
		vec[typeOffset+3] = 1
	}

	// Direction histogram: bucket consecutive polyline directions by their
	// azimuth around the principal axis.
	histOffset := typeOffset + 4
	histSize := dim - histOffset
	if histSize > 16 {
		histSize = 16
	}
	if histSize > 0 {
		for i := 1; i < len(r.Points); i++ {
			d := geometry.Normalize(geometry.Sub(r.Points[i], r.Points[i-1]))
			az := math.Atan2(d[1], d[0]) + math.Pi
			bucket := int(az / (2 * math.Pi) * float64(histSize))
			if bucket >= histSize {
				bucket = histSize - 1
			}
			vec[histOffset+bucket]++
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, dim)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
