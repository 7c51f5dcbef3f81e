package mapper

import (
	"encoding/json"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/model"
	"mesh-explorer-be/pkg/protocol"

	"github.com/pgvector/pgvector-go"
)

// GeometryMapper converts between mesh/segment entities and their gorm
// models with JSONB-encoded arrays.
type GeometryMapper struct{}

func NewGeometryMapper() *GeometryMapper {
	return &GeometryMapper{}
}

func (m *GeometryMapper) MeshToModel(e *entity.SurfaceMesh) *model.SurfaceMesh {
	vertices, _ := json.Marshal(e.Vertices)
	faces, _ := json.Marshal(e.Faces)
	return &model.SurfaceMesh{
		Id:        e.Id,
		SessionId: e.SessionId,
		Vertices:  vertices,
		Faces:     faces,
		CreatedAt: e.CreatedAt,
	}
}

func (m *GeometryMapper) MeshToEntity(mo *model.SurfaceMesh) (*entity.SurfaceMesh, error) {
	e := &entity.SurfaceMesh{
		Id:        mo.Id,
		SessionId: mo.SessionId,
		CreatedAt: mo.CreatedAt,
	}
	if err := json.Unmarshal(mo.Vertices, &e.Vertices); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mo.Faces, &e.Faces); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *GeometryMapper) SegmentToModel(e *entity.SegmentRecord) *model.Segment {
	nodeIDs, _ := json.Marshal(e.NodeIDs)
	faceIDs, _ := json.Marshal(e.FaceIDs)
	downsampled, _ := json.Marshal(e.Downsampled)
	return &model.Segment{
		Id:           e.Id,
		SessionId:    e.SessionId,
		SegmentIndex: e.SegmentIndex,
		Type:         e.Type,
		Length:       e.Length,
		Curvature:    e.Curvature,
		Angle:        e.Angle,
		Radius:       e.Radius,
		NodeIDs:      nodeIDs,
		FaceIDs:      faceIDs,
		Downsampled:  downsampled,
		Embedding:    pgvector.NewVector(e.Embedding),
		CreatedAt:    e.CreatedAt,
	}
}

func (m *GeometryMapper) SegmentToEntity(mo *model.Segment) (*entity.SegmentRecord, error) {
	e := &entity.SegmentRecord{
		Id:           mo.Id,
		SessionId:    mo.SessionId,
		SegmentIndex: mo.SegmentIndex,
		Type:         mo.Type,
		Length:       mo.Length,
		Curvature:    mo.Curvature,
		Angle:        mo.Angle,
		Radius:       mo.Radius,
		Embedding:    mo.Embedding.Slice(),
		CreatedAt:    mo.CreatedAt,
	}
	if err := json.Unmarshal(mo.NodeIDs, &e.NodeIDs); err != nil {
		return nil, err
	}
	if len(mo.FaceIDs) > 0 {
		if err := json.Unmarshal(mo.FaceIDs, &e.FaceIDs); err != nil {
			return nil, err
		}
	}
	var poly protocol.Polyline
	if err := json.Unmarshal(mo.Downsampled, &poly); err != nil {
		return nil, err
	}
	e.Downsampled = poly
	return e, nil
}
