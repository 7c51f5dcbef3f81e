package entity

import (
	"time"

	"mesh-explorer-be/pkg/protocol"

	"github.com/google/uuid"
)

// SegmentRecord is one stored segment of a session's current segmentation.
// Records are replaced atomically as a whole result set, never one by one.
type SegmentRecord struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	SegmentIndex int // wire-level segment id, unique within the session
	Type         string
	Length       float64
	Curvature    float64
	Angle        float64
	Radius       float64
	NodeIDs      []int
	FaceIDs      []int
	Downsampled  protocol.Polyline
	Embedding    []float32
	CreatedAt    time.Time
}

// ToWire converts the record to its wire representation.
func (r *SegmentRecord) ToWire() protocol.Segment {
	return protocol.Segment{
		ID:          r.SegmentIndex,
		Type:        r.Type,
		Length:      r.Length,
		Curvature:   r.Curvature,
		Angle:       r.Angle,
		Radius:      r.Radius,
		NodeIDs:     r.NodeIDs,
		FaceIDs:     r.FaceIDs,
		Downsampled: r.Downsampled,
		Embedding:   r.Embedding,
	}
}
