package implementation

import (
	"context"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/mapper"
	"mesh-explorer-be/internal/model"
	"mesh-explorer-be/internal/repository/contract"
	"mesh-explorer-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SegmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GeometryMapper
}

func NewSegmentRepository(db *gorm.DB) contract.SegmentRepository {
	return &SegmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewGeometryMapper(),
	}
}

func (r *SegmentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SegmentRepositoryImpl) CreateBatch(ctx context.Context, segments []*entity.SegmentRecord) error {
	if len(segments) == 0 {
		return nil
	}
	ms := make([]*model.Segment, len(segments))
	for i, s := range segments {
		ms[i] = r.mapper.SegmentToModel(s)
	}
	if err := r.db.WithContext(ctx).Create(&ms).Error; err != nil {
		return err
	}
	for i, m := range ms {
		segments[i].Id = m.Id
		segments[i].CreatedAt = m.CreatedAt
	}
	return nil
}

func (r *SegmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SegmentRecord, error) {
	var ms []*model.Segment
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms)
}

func (r *SegmentRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.Segment{}).Error
}

// NearestByEmbedding orders by pgvector cosine distance (embedding <=> query).
func (r *SegmentRepositoryImpl) NearestByEmbedding(ctx context.Context, sessionId uuid.UUID, embedding []float32, limit int) ([]*entity.SegmentRecord, error) {
	var ms []*model.Segment
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(ms)
}

func (r *SegmentRepositoryImpl) toEntities(ms []*model.Segment) ([]*entity.SegmentRecord, error) {
	records := make([]*entity.SegmentRecord, len(ms))
	for i, m := range ms {
		e, err := r.mapper.SegmentToEntity(m)
		if err != nil {
			return nil, err
		}
		records[i] = e
	}
	return records, nil
}
