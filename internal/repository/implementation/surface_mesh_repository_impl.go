package implementation

import (
	"context"
	"errors"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/mapper"
	"mesh-explorer-be/internal/model"
	"mesh-explorer-be/internal/repository/contract"
	"mesh-explorer-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SurfaceMeshRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GeometryMapper
}

func NewSurfaceMeshRepository(db *gorm.DB) contract.SurfaceMeshRepository {
	return &SurfaceMeshRepositoryImpl{
		db:     db,
		mapper: mapper.NewGeometryMapper(),
	}
}

func (r *SurfaceMeshRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SurfaceMeshRepositoryImpl) Create(ctx context.Context, mesh *entity.SurfaceMesh) error {
	m := r.mapper.MeshToModel(mesh)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	mesh.Id = m.Id
	mesh.CreatedAt = m.CreatedAt
	return nil
}

func (r *SurfaceMeshRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SurfaceMesh, error) {
	var m model.SurfaceMesh
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MeshToEntity(&m)
}

func (r *SurfaceMeshRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.SurfaceMesh{}).Error
}
