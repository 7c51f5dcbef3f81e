package service

import (
	"context"
	"time"

	"mesh-explorer-be/internal/dto"
	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/pkg/serverutils"
	"mesh-explorer-be/internal/repository/specification"
	"mesh-explorer-be/internal/repository/unitofwork"
	"mesh-explorer-be/pkg/protocol"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	// GetOwned resolves a session and enforces ownership. Used by the REST
	// controllers and by the websocket upgrade path.
	GetOwned(ctx context.Context, userId, sessionId uuid.UUID) (*entity.MeshSession, error)
	GetMesh(ctx context.Context, userId, sessionId uuid.UUID) (*protocol.SurfaceMesh, error)
	// GetSegments returns the stored segmentation; a session that has not
	// been segmented yet yields a NotFoundError.
	GetSegments(ctx context.Context, userId, sessionId uuid.UUID) (*protocol.SegmentResult, error)
	GetTranscript(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.TranscriptMessageResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	if req.Mesh.IsEmpty() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "mesh has no geometry")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session := &entity.MeshSession{
		Id:        uuid.New(),
		UserId:    userId,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if err := uow.MeshSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	mesh := &entity.SurfaceMesh{
		Id:        uuid.New(),
		SessionId: session.Id,
		Vertices:  req.Mesh.Vertices,
		Faces:     req.Mesh.Faces,
		CreatedAt: time.Now(),
	}
	if err := uow.SurfaceMeshRepository().Create(ctx, mesh); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Id:        session.Id,
		Name:      session.Name,
		CreatedAt: session.CreatedAt,
	}, nil
}

func (s *sessionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.MeshSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderByCreatedAt{Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, &dto.SessionResponse{
			Id:          session.Id,
			Name:        session.Name,
			CreatedAt:   session.CreatedAt,
			SegmentedAt: session.SegmentedAt,
		})
	}
	return result, nil
}

func (s *sessionService) GetOwned(ctx context.Context, userId, sessionId uuid.UUID) (*entity.MeshSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.MeshSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != userId {
		return nil, &serverutils.NotFoundError{Resource: "session"}
	}
	return session, nil
}

func (s *sessionService) GetMesh(ctx context.Context, userId, sessionId uuid.UUID) (*protocol.SurfaceMesh, error) {
	if _, err := s.GetOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	mesh, err := uow.SurfaceMeshRepository().FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	if mesh == nil {
		return nil, &serverutils.NotFoundError{Resource: "mesh"}
	}

	return &protocol.SurfaceMesh{
		Vertices: mesh.Vertices,
		Faces:    mesh.Faces,
	}, nil
}

func (s *sessionService) GetSegments(ctx context.Context, userId, sessionId uuid.UUID) (*protocol.SegmentResult, error) {
	session, err := s.GetOwned(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if session.SegmentedAt == nil {
		return nil, &serverutils.NotFoundError{Resource: "segmentation"}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.SegmentRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBySegmentIndex{},
	)
	if err != nil {
		return nil, err
	}

	result := &protocol.SegmentResult{
		Segments: make([]protocol.Segment, 0, len(records)),
		Summary: protocol.SegmentSummary{
			TotalSegments: len(records),
			ByType:        map[string]int{},
		},
	}
	for _, record := range records {
		result.Segments = append(result.Segments, record.ToWire())
		result.Summary.ByType[record.Type]++
	}
	return result, nil
}

func (s *sessionService) GetTranscript(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.TranscriptMessageResponse, error) {
	if _, err := s.GetOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderByCreatedAt{},
	)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, &serverutils.NotFoundError{Resource: "transcript"}
	}

	result := make([]*dto.TranscriptMessageResponse, 0, len(messages))
	for _, m := range messages {
		result = append(result, &dto.TranscriptMessageResponse{
			Role:      m.Role,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}
