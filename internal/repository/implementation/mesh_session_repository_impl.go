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

type MeshSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewMeshSessionRepository(db *gorm.DB) contract.MeshSessionRepository {
	return &MeshSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *MeshSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MeshSessionRepositoryImpl) Create(ctx context.Context, session *entity.MeshSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *MeshSessionRepositoryImpl) Update(ctx context.Context, session *entity.MeshSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *MeshSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MeshSession, error) {
	var m model.MeshSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *MeshSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MeshSession, error) {
	var ms []*model.MeshSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	sessions := make([]*entity.MeshSession, len(ms))
	for i, m := range ms {
		sessions[i] = r.mapper.SessionToEntity(m)
	}
	return sessions, nil
}

func (r *MeshSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.MeshSession{}, id).Error
}
