package contract

import (
	"context"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SurfaceMeshRepository interface {
	Create(ctx context.Context, mesh *entity.SurfaceMesh) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SurfaceMesh, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
