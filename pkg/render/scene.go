package render

import (
	"errors"

	"mesh-explorer-be/pkg/geometry"
	"mesh-explorer-be/pkg/protocol"
)

// ErrEmptyMesh marks a mesh with no renderable geometry. The engine surfaces
// it as a distinct view state rather than building degenerate buffers.
var ErrEmptyMesh = errors.New("mesh has no vertices or faces")

const (
	defaultOpacity  = 1.0
	centerlineWidth = 3.0
)

// Surface is the shaded triangle mesh with one color per face. Opacity is a
// cheap property update on the existing object; it never forces a rebuild.
type Surface struct {
	Positions  [][3]float64
	Triangles  [][3]int32
	FaceColors []Color
	Opacity    float64
}

// Centerline is the schematic skeleton overlay of one segment, drawn with a
// thick stroke at full opacity regardless of surface opacity.
type Centerline struct {
	SegmentID int
	Nodes     [][3]float64
	Edges     [][2]int
	Color     Color
	Width     float64
}

// Scene is one fully built renderable: surface plus centerline overlay.
type Scene struct {
	Surface     *Surface
	Centerlines []Centerline
	Bounds      geometry.Bounds

	released bool
}

// Release drops the scene's buffers so a rebuild never accumulates detached
// geometry. A released scene must not be drawn.
func (s *Scene) Release() {
	if s == nil || s.released {
		return
	}
	s.Surface = nil
	s.Centerlines = nil
	s.released = true
}

// Released reports whether Release has been called.
func (s *Scene) Released() bool {
	return s != nil && s.released
}

// BuildScene constructs the colored scene from a surface mesh, the current
// segmentation (may be nil), and the highlight set (may be nil).
//
// Faces default to the neutral color; each segment then paints its face set
// with its resolved color, in result order. Overlapping face sets are
// last-write-wins. Highlight ids absent from the result are ignored.
func BuildScene(mesh *protocol.SurfaceMesh, result *protocol.SegmentResult, highlights map[int]bool, opacity float64) (*Scene, error) {
	if mesh.IsEmpty() {
		return nil, ErrEmptyMesh
	}

	positions := make([][3]float64, len(mesh.Vertices))
	copy(positions, mesh.Vertices)
	triangles := make([][3]int32, len(mesh.Faces))
	copy(triangles, mesh.Faces)

	faceColors := make([]Color, len(triangles))
	for i := range faceColors {
		faceColors[i] = DefaultFaceColor
	}

	bounds := geometry.NewBounds()
	for _, p := range positions {
		bounds.Extend(p)
	}

	scene := &Scene{
		Surface: &Surface{
			Positions:  positions,
			Triangles:  triangles,
			FaceColors: faceColors,
			Opacity:    opacity,
		},
		Bounds: bounds,
	}

	if result == nil {
		return scene, nil
	}

	for i := range result.Segments {
		seg := &result.Segments[i]
		color := SegmentColor(seg, highlights[seg.ID])

		for _, faceID := range seg.FaceIDs {
			if faceID < 0 || faceID >= len(faceColors) {
				continue
			}
			faceColors[faceID] = color
		}

		scene.Centerlines = append(scene.Centerlines, buildCenterline(seg, color))
	}

	return scene, nil
}

func buildCenterline(seg *protocol.Segment, color Color) Centerline {
	nodes := make([][3]float64, len(seg.Downsampled.Nodes))
	copy(nodes, seg.Downsampled.Nodes)

	edges := make([][2]int, 0, len(nodes))
	if len(seg.Downsampled.Edges) > 0 {
		edges = append(edges, seg.Downsampled.Edges...)
	} else {
		// No explicit edge list: connect the nodes consecutively.
		for i := 1; i < len(nodes); i++ {
			edges = append(edges, [2]int{i - 1, i})
		}
	}

	return Centerline{
		SegmentID: seg.ID,
		Nodes:     nodes,
		Edges:     edges,
		Color:     color,
		Width:     centerlineWidth,
	}
}
