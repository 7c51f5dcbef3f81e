package contract

import (
	"context"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MeshSessionRepository interface {
	Create(ctx context.Context, session *entity.MeshSession) error
	Update(ctx context.Context, session *entity.MeshSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MeshSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MeshSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
