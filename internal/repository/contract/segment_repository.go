package contract

import (
	"context"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SegmentRepository interface {
	CreateBatch(ctx context.Context, segments []*entity.SegmentRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SegmentRecord, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	// NearestByEmbedding returns up to limit segments of the session ordered
	// by cosine distance to the given embedding.
	NearestByEmbedding(ctx context.Context, sessionId uuid.UUID, embedding []float32, limit int) ([]*entity.SegmentRecord, error)
}
