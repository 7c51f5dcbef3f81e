package render

import (
	"testing"

	"mesh-explorer-be/pkg/protocol"
)

func testMesh() *protocol.SurfaceMesh {
	return &protocol.SurfaceMesh{
		Vertices: [][3]float64{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0, 0, 1},
		},
		Faces: [][3]int32{
			{0, 1, 2}, {0, 2, 3}, {0, 1, 4}, {1, 2, 4},
		},
	}
}

func TestBuildSceneEmptyMesh(t *testing.T) {
	_, err := BuildScene(&protocol.SurfaceMesh{}, nil, nil, 1.0)
	if err != ErrEmptyMesh {
		t.Fatalf("expected ErrEmptyMesh, got %v", err)
	}
}

func TestBuildSceneWithoutSegmentation(t *testing.T) {
	scene, err := BuildScene(testMesh(), nil, nil, 0.5)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if scene.Surface.Opacity != 0.5 {
		t.Errorf("opacity = %v, want 0.5", scene.Surface.Opacity)
	}
	if len(scene.Centerlines) != 0 {
		t.Errorf("unsegmented scene should have no centerlines, got %d", len(scene.Centerlines))
	}
	for i, c := range scene.Surface.FaceColors {
		if c != DefaultFaceColor {
			t.Errorf("face %d: color %v, want neutral default", i, c)
		}
	}
}

func TestBuildSceneSegmentColors(t *testing.T) {
	result := &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 0, Type: protocol.SegmentStraight, FaceIDs: []int{0, 1}},
			{ID: 1, Type: protocol.SegmentJunction, FaceIDs: []int{2}},
		},
	}
	scene, err := BuildScene(testMesh(), result, nil, 1.0)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}

	colors := scene.Surface.FaceColors
	if colors[0] != colorStraight || colors[1] != colorStraight {
		t.Errorf("straight segment faces not painted: %v %v", colors[0], colors[1])
	}
	if colors[2] != colorJunction {
		t.Errorf("junction face not painted: %v", colors[2])
	}
	if colors[3] != DefaultFaceColor {
		t.Errorf("unclaimed face should stay neutral, got %v", colors[3])
	}
	if len(scene.Centerlines) != 2 {
		t.Fatalf("centerlines = %d, want 2", len(scene.Centerlines))
	}
}

func TestBuildSceneOverlapIsLastWriteWins(t *testing.T) {
	result := &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 0, Type: protocol.SegmentStraight, FaceIDs: []int{0, 1, 2}},
			{ID: 1, Type: protocol.SegmentArc, FaceIDs: []int{2, 3}},
		},
	}
	scene, err := BuildScene(testMesh(), result, nil, 1.0)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if scene.Surface.FaceColors[2] != colorArc {
		t.Errorf("overlapping face should take the later segment's color, got %v", scene.Surface.FaceColors[2])
	}
}

func TestBuildSceneHighlightWinsOverType(t *testing.T) {
	result := &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 7, Type: protocol.SegmentArc, FaceIDs: []int{0}},
		},
	}
	scene, err := BuildScene(testMesh(), result, map[int]bool{7: true}, 1.0)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if scene.Surface.FaceColors[0] != HighlightColor {
		t.Errorf("highlighted segment face = %v, want highlight color", scene.Surface.FaceColors[0])
	}
	if scene.Centerlines[0].Color != HighlightColor {
		t.Errorf("highlighted centerline = %v, want highlight color", scene.Centerlines[0].Color)
	}
}

func TestBuildSceneIgnoresUnknownHighlightIDs(t *testing.T) {
	result := &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 0, Type: protocol.SegmentArc, FaceIDs: []int{0}},
		},
	}
	scene, err := BuildScene(testMesh(), result, map[int]bool{42: true}, 1.0)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if scene.Surface.FaceColors[0] != colorArc {
		t.Errorf("face = %v, want type color; a highlight id absent from the result is ignored", scene.Surface.FaceColors[0])
	}
}

func TestBuildSceneIgnoresOutOfRangeFaceIDs(t *testing.T) {
	result := &protocol.SegmentResult{
		Segments: []protocol.Segment{
			{ID: 0, Type: protocol.SegmentStraight, FaceIDs: []int{-1, 99, 1}},
		},
	}
	scene, err := BuildScene(testMesh(), result, nil, 1.0)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if scene.Surface.FaceColors[1] != colorStraight {
		t.Errorf("valid face id should still be painted")
	}
}

func TestCenterlineEdgeFallback(t *testing.T) {
	seg := &protocol.Segment{
		ID: 0,
		Downsampled: protocol.Polyline{
			Nodes: [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		},
	}
	line := buildCenterline(seg, DefaultSegmentColor)
	want := [][2]int{{0, 1}, {1, 2}}
	if len(line.Edges) != len(want) {
		t.Fatalf("edges = %v, want %v", line.Edges, want)
	}
	for i := range want {
		if line.Edges[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, line.Edges[i], want[i])
		}
	}
	if line.Width != centerlineWidth {
		t.Errorf("width = %v, want %v", line.Width, centerlineWidth)
	}
}

func TestSceneRelease(t *testing.T) {
	scene, err := BuildScene(testMesh(), nil, nil, 1.0)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	scene.Release()
	if !scene.Released() {
		t.Error("scene not marked released")
	}
	if scene.Surface != nil {
		t.Error("released scene still holds surface buffers")
	}
	scene.Release() // idempotent
}
