package render

import "mesh-explorer-be/pkg/protocol"

// Color is one RGB triple, components in [0,1].
type Color [3]float64

// Fixed type->color table for segment surfaces and centerlines.
var (
	colorStraight = Color{0.30, 0.65, 0.95}
	colorArc      = Color{0.35, 0.80, 0.45}
	colorJunction = Color{0.95, 0.60, 0.20}
	colorCorner   = Color{0.75, 0.40, 0.85}

	// DefaultSegmentColor covers unrecognized type tags.
	DefaultSegmentColor = Color{0.60, 0.60, 0.60}

	// DefaultFaceColor is the neutral surface color of faces no segment claims.
	DefaultFaceColor = Color{0.78, 0.78, 0.80}

	// HighlightColor overrides the type color for highlighted segments.
	HighlightColor = Color{1.00, 0.85, 0.10}
)

var typeColors = map[string]Color{
	protocol.SegmentStraight: colorStraight,
	protocol.SegmentArc:      colorArc,
	protocol.SegmentJunction: colorJunction,
	protocol.SegmentCorner:   colorCorner,
}

// SegmentColor resolves the color of a segment: highlight wins over the
// type table, unknown types fall back to the default.
func SegmentColor(seg *protocol.Segment, highlighted bool) Color {
	if highlighted {
		return HighlightColor
	}
	if c, ok := typeColors[seg.Type]; ok {
		return c
	}
	return DefaultSegmentColor
}
