package service

import (
	"context"
	"encoding/json"
	"time"

	"mesh-explorer-be/internal/dto"
	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/pkg/logger"
	"mesh-explorer-be/internal/pkg/serverutils"
	"mesh-explorer-be/internal/repository/specification"
	"mesh-explorer-be/internal/repository/unitofwork"
	"mesh-explorer-be/pkg/pipeline"
	"mesh-explorer-be/pkg/protocol"

	"github.com/google/uuid"
)

// ProgressFunc receives one progress step of a running pipeline. Emitters
// must be safe to call from the run goroutine.
type ProgressFunc func(step protocol.Phase, detail map[string]interface{}, explanation string)

type IPipelineService interface {
	// RunSegmentation executes the full segment pipeline over the session's
	// stored mesh and atomically replaces the stored segmentation.
	RunSegmentation(ctx context.Context, sessionId uuid.UUID, params pipeline.Params, emit ProgressFunc) (*protocol.SegmentResult, error)
}

type pipelineService struct {
	uowFactory       unitofwork.RepositoryFactory
	segmenter        *pipeline.Segmenter
	publisherService IPublisherService
	log              logger.ILogger
}

func NewPipelineService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		uowFactory:       uowFactory,
		segmenter:        pipeline.NewSegmenter(),
		publisherService: publisherService,
		log:              log,
	}
}

func (s *pipelineService) RunSegmentation(ctx context.Context, sessionId uuid.UUID, params pipeline.Params, emit ProgressFunc) (*protocol.SegmentResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	meshEntity, err := uow.SurfaceMeshRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	if meshEntity == nil {
		return nil, &serverutils.NotFoundError{Resource: "mesh"}
	}
	mesh := &protocol.SurfaceMesh{Vertices: meshEntity.Vertices, Faces: meshEntity.Faces}

	emit(protocol.PhaseSegmenting, map[string]interface{}{
		"target_step": params.TargetStep,
	}, "splitting the centerline at junctions")

	runs, err := s.segmenter.Split(mesh, params)
	if err != nil {
		return nil, err
	}

	emit(protocol.PhaseSegmented, map[string]interface{}{
		"count": len(runs),
	}, "classified segments by curvature and branching")

	emit(protocol.PhaseDownsampling, map[string]interface{}{
		"nodes": params.DownsampleNodes,
	}, "resampling each segment polyline")

	s.segmenter.Downsample(runs, params.DownsampleNodes)

	emit(protocol.PhaseDownsampled, nil, "")

	if params.Embed {
		emit(protocol.PhaseEmbedding, map[string]interface{}{
			"dimensions": pipeline.EmbedDim,
		}, "computing geometry descriptors")

		s.segmenter.Embed(runs, pipeline.EmbedDim)

		emit(protocol.PhaseEmbedded, nil, "")
	}

	result := s.segmenter.Result(runs)

	if err := s.store(ctx, sessionId, result); err != nil {
		return nil, err
	}

	emit(protocol.PhaseStored, map[string]interface{}{
		"total": result.Summary.TotalSegments,
	}, "")

	s.notifySegmented(ctx, sessionId, result.Summary.TotalSegments)

	return result, nil
}

// store replaces the session's segmentation in a single transaction; a
// reader never observes a partially replaced result set.
func (s *pipelineService) store(ctx context.Context, sessionId uuid.UUID, result *protocol.SegmentResult) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	session, err := uow.MeshSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return &serverutils.NotFoundError{Resource: "session"}
	}

	if err := uow.SegmentRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}

	records := make([]*entity.SegmentRecord, 0, len(result.Segments))
	for _, seg := range result.Segments {
		records = append(records, &entity.SegmentRecord{
			Id:           uuid.New(),
			SessionId:    sessionId,
			SegmentIndex: seg.ID,
			Type:         seg.Type,
			Length:       seg.Length,
			Curvature:    seg.Curvature,
			Angle:        seg.Angle,
			Radius:       seg.Radius,
			NodeIDs:      seg.NodeIDs,
			FaceIDs:      seg.FaceIDs,
			Downsampled:  seg.Downsampled,
			Embedding:    seg.Embedding,
			CreatedAt:    time.Now(),
		})
	}
	if err := uow.SegmentRepository().CreateBatch(ctx, records); err != nil {
		return err
	}

	now := time.Now()
	session.SegmentedAt = &now
	if err := uow.MeshSessionRepository().Update(ctx, session); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *pipelineService) notifySegmented(ctx context.Context, sessionId uuid.UUID, total int) {
	payload, err := json.Marshal(dto.SessionSegmentedMessage{
		SessionId:     sessionId,
		TotalSegments: total,
	})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("pipeline", "failed to publish segmented message", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}
