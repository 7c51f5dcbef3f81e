package pipeline

import (
	"math"
	"testing"

	"mesh-explorer-be/pkg/protocol"
)

// tubeMesh builds a straight strip of triangles along the x axis.
func tubeMesh(length int) *protocol.SurfaceMesh {
	mesh := &protocol.SurfaceMesh{}
	for i := 0; i < length; i++ {
		x := float64(i)
		mesh.Vertices = append(mesh.Vertices,
			[3]float64{x, 0, 0},
			[3]float64{x, 1, 0},
		)
	}
	for i := 0; i < length-1; i++ {
		a := int32(2 * i)
		mesh.Faces = append(mesh.Faces,
			[3]int32{a, a + 1, a + 2},
			[3]int32{a + 1, a + 3, a + 2},
		)
	}
	return mesh
}

func TestSplitEmptyMesh(t *testing.T) {
	s := NewSegmenter()
	if _, err := s.Split(&protocol.SurfaceMesh{}, Params{}); err != ErrEmptyMesh {
		t.Fatalf("expected ErrEmptyMesh, got %v", err)
	}
}

func TestSplitCoversAllVerticesOnce(t *testing.T) {
	s := NewSegmenter()
	mesh := tubeMesh(20)
	runs, err := s.Split(mesh, Params{TargetStep: 0.4})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(runs) < 2 {
		t.Fatalf("expected multiple runs for a long tube, got %d", len(runs))
	}

	seen := map[int]int{}
	for _, r := range runs {
		for _, id := range r.NodeIDs {
			seen[id]++
		}
	}
	if len(seen) != len(mesh.Vertices) {
		t.Errorf("runs cover %d vertices, mesh has %d", len(seen), len(mesh.Vertices))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("vertex %d assigned to %d runs", id, n)
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s := NewSegmenter()
	mesh := tubeMesh(15)

	first, err := s.Split(mesh, Params{TargetStep: 0.5})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	second, err := s.Split(mesh, Params{TargetStep: 0.5})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("run counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Type != second[i].Type || first[i].Length != second[i].Length {
			t.Errorf("run %d differs between runs of the same input", i)
		}
		if len(first[i].FaceIDs) != len(second[i].FaceIDs) {
			t.Errorf("run %d face assignment differs", i)
		}
	}
}

// lineMesh builds a mesh whose vertices trace the given polyline, with
// degenerate faces over consecutive vertex triples so the mesh is renderable.
func lineMesh(points [][3]float64) *protocol.SurfaceMesh {
	mesh := &protocol.SurfaceMesh{Vertices: points}
	for i := 0; i+2 < len(points); i++ {
		mesh.Faces = append(mesh.Faces, [3]int32{int32(i), int32(i + 1), int32(i + 2)})
	}
	return mesh
}

func TestClassification(t *testing.T) {
	straight := make([][3]float64, 12)
	for i := range straight {
		straight[i] = [3]float64{float64(i), 0, 0}
	}

	// An L shape: a long leg along x with a sharp bend into y.
	corner := make([][3]float64, 0, 14)
	for i := 0; i <= 10; i++ {
		corner = append(corner, [3]float64{float64(i), 0, 0})
	}
	for i := 1; i <= 3; i++ {
		corner = append(corner, [3]float64{10, float64(i), 0})
	}

	// A quarter circle of radius 5: gentle turns, high total curvature.
	arc := make([][3]float64, 0, 11)
	for i := 0; i <= 10; i++ {
		theta := float64(i) * math.Pi / 2 / 10
		arc = append(arc, [3]float64{5 * math.Cos(theta), 5 * math.Sin(theta), 0})
	}

	cases := []struct {
		name string
		mesh *protocol.SurfaceMesh
		want string
	}{
		{"straight line", lineMesh(straight), protocol.SegmentStraight},
		{"sharp bend", lineMesh(corner), protocol.SegmentCorner},
		{"gentle arc", lineMesh(arc), protocol.SegmentArc},
	}

	s := NewSegmenter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// A huge target step forces a single run.
			runs, err := s.Split(tc.mesh, Params{TargetStep: 100})
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(runs) != 1 {
				t.Fatalf("expected a single run, got %d", len(runs))
			}
			if runs[0].Type != tc.want {
				t.Errorf("classified %q, want %q", runs[0].Type, tc.want)
			}
		})
	}
}

func TestHighValenceVertexClassifiesJunction(t *testing.T) {
	// A fan: vertex 0 shares a face with ten spokes around it.
	mesh := &protocol.SurfaceMesh{Vertices: [][3]float64{{0, 0, 0}}}
	for i := 0; i < 10; i++ {
		theta := float64(i) * 2 * math.Pi / 10
		mesh.Vertices = append(mesh.Vertices, [3]float64{math.Cos(theta), math.Sin(theta), 0})
	}
	for i := 1; i < 10; i++ {
		mesh.Faces = append(mesh.Faces, [3]int32{0, int32(i), int32(i + 1)})
	}

	s := NewSegmenter()
	runs, err := s.Split(mesh, Params{TargetStep: 100})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	found := false
	for _, r := range runs {
		if r.Type == protocol.SegmentJunction {
			found = true
		}
	}
	if !found {
		t.Error("expected the hub vertex to yield a junction run")
	}
}

func TestEveryFaceAssignedExactlyOnce(t *testing.T) {
	s := NewSegmenter()
	mesh := tubeMesh(12)
	runs, err := s.Split(mesh, Params{TargetStep: 0.5})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	seen := map[int]int{}
	for _, r := range runs {
		for _, f := range r.FaceIDs {
			seen[f]++
		}
	}
	if len(seen) != len(mesh.Faces) {
		t.Errorf("assigned %d faces, mesh has %d", len(seen), len(mesh.Faces))
	}
	for f, n := range seen {
		if n != 1 {
			t.Errorf("face %d assigned %d times", f, n)
		}
	}
}

func TestDownsampleLimitsNodes(t *testing.T) {
	s := NewSegmenter()
	runs, err := s.Split(tubeMesh(40), Params{TargetStep: 10})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	s.Downsample(runs, 8)

	for _, r := range runs {
		n := len(r.Downsampled.Nodes)
		if n > 8 {
			t.Errorf("run %d downsampled to %d nodes, want <= 8", r.ID, n)
		}
		if n > 1 {
			// Endpoints survive downsampling.
			if r.Downsampled.Nodes[0] != r.Points[0] {
				t.Errorf("run %d lost its first point", r.ID)
			}
			if r.Downsampled.Nodes[n-1] != r.Points[len(r.Points)-1] {
				t.Errorf("run %d lost its last point", r.ID)
			}
			if len(r.Downsampled.Edges) != n-1 {
				t.Errorf("run %d has %d edges for %d nodes", r.ID, len(r.Downsampled.Edges), n)
			}
		}
	}
}

func TestDownsampleRejectsDegenerateNodeCounts(t *testing.T) {
	s := NewSegmenter()
	runs, err := s.Split(tubeMesh(40), Params{TargetStep: 10})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	// A single node cannot form a polyline; the default applies instead.
	s.Downsample(runs, 1)
	for _, r := range runs {
		n := len(r.Downsampled.Nodes)
		if n < 2 || n > 16 {
			t.Errorf("run %d downsampled to %d nodes, want the 16-node default", r.ID, n)
		}
	}
}

func TestEmbedClampsTinyDimensions(t *testing.T) {
	s := NewSegmenter()
	runs, err := s.Split(tubeMesh(10), Params{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	// The layout needs 8 slots before the histogram; smaller requests are
	// widened rather than crashing the run.
	s.Embed(runs, 4)
	for _, r := range runs {
		if len(r.Embedding) != 8 {
			t.Errorf("run %d embedding has %d dimensions, want 8", r.ID, len(r.Embedding))
		}
	}
}

func TestEmbedProducesUnitVectors(t *testing.T) {
	s := NewSegmenter()
	runs, err := s.Split(tubeMesh(10), Params{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	s.Embed(runs, 64)

	for _, r := range runs {
		if len(r.Embedding) != 64 {
			t.Fatalf("run %d embedding has %d dimensions, want 64", r.ID, len(r.Embedding))
		}
		norm := 0.0
		for _, v := range r.Embedding {
			norm += float64(v) * float64(v)
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
			t.Errorf("run %d embedding norm = %v, want 1", r.ID, math.Sqrt(norm))
		}
	}
}

func TestResultSummaryCountsTypes(t *testing.T) {
	s := NewSegmenter()
	runs, err := s.Split(tubeMesh(10), Params{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	s.Downsample(runs, 16)

	result := s.Result(runs)
	if result.Summary.TotalSegments != len(runs) {
		t.Errorf("total = %d, want %d", result.Summary.TotalSegments, len(runs))
	}
	total := 0
	for _, n := range result.Summary.ByType {
		total += n
	}
	if total != len(runs) {
		t.Errorf("by_type counts sum to %d, want %d", total, len(runs))
	}
	for i, seg := range result.Segments {
		if seg.ID != i {
			t.Errorf("segment %d has wire id %d", i, seg.ID)
		}
	}
}
