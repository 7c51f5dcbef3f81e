package service

import (
	"context"
	"fmt"
	"time"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/repository/specification"
	"mesh-explorer-be/internal/repository/unitofwork"
	"mesh-explorer-be/pkg/analysis"
	"mesh-explorer-be/pkg/protocol"

	"github.com/google/uuid"
)

type IQueryService interface {
	// Answer runs one query over the session's stored segmentation and
	// persists both sides of the exchange to the transcript.
	Answer(ctx context.Context, sessionId uuid.UUID, query string, emit ProgressFunc) (*protocol.QueryResult, error)
}

type queryService struct {
	uowFactory unitofwork.RepositoryFactory
	router     *analysis.Router
}

func NewQueryService(uowFactory unitofwork.RepositoryFactory) IQueryService {
	return &queryService{
		uowFactory: uowFactory,
		router:     analysis.NewRouter(),
	}
}

func (s *queryService) Answer(ctx context.Context, sessionId uuid.UUID, query string, emit ProgressFunc) (*protocol.QueryResult, error) {
	emit(protocol.PhaseParsingQuery, map[string]interface{}{"query": query}, "")

	result, err := s.loadSegments(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	onTool := func(call protocol.ToolCall) {
		emit(protocol.PhaseToolCall, map[string]interface{}{
			"name": call.Name,
		}, call.Output)
	}

	outcome := s.router.Answer(result, query, onTool)

	// Embedding similarity is the one tool the router cannot run on its
	// own: it needs the stored pgvector column.
	if ref, ok := analysis.SimilarSegmentRef(query); ok {
		if similar := s.findSimilar(ctx, sessionId, result, ref, onTool); similar != nil {
			outcome = *similar
		}
	}

	if err := s.appendTranscript(ctx, sessionId, query, outcome.Answer); err != nil {
		return nil, err
	}

	return &protocol.QueryResult{
		Query:        query,
		Answer:       outcome.Answer,
		ToolCalls:    outcome.ToolCalls,
		HighlightIDs: outcome.HighlightIDs,
		Mode:         outcome.Mode,
	}, nil
}

func (s *queryService) loadSegments(ctx context.Context, sessionId uuid.UUID) (*protocol.SegmentResult, error) {
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

func (s *queryService) findSimilar(ctx context.Context, sessionId uuid.UUID, result *protocol.SegmentResult, ref int, onTool func(protocol.ToolCall)) *analysis.Outcome {
	var embedding []float32
	for _, seg := range result.Segments {
		if seg.ID == ref {
			embedding = seg.Embedding
			break
		}
	}
	if len(embedding) == 0 {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.SegmentRepository().NearestByEmbedding(ctx, sessionId, embedding, 4)
	if err != nil {
		return nil
	}

	ids := make([]int, 0, len(records))
	for _, record := range records {
		if record.SegmentIndex == ref {
			continue
		}
		ids = append(ids, record.SegmentIndex)
	}

	answer := fmt.Sprintf("Segments most similar to segment %d: %v.", ref, ids)
	call := protocol.ToolCall{
		Name: "find_similar",
		Arguments: map[string]interface{}{
			"segment_id": ref,
		},
		Output: answer,
	}
	onTool(call)

	return &analysis.Outcome{
		Answer:       answer,
		ToolCalls:    []protocol.ToolCall{call},
		HighlightIDs: append([]int{ref}, ids...),
		Mode:         analysis.ModeTools,
	}
}

func (s *queryService) appendTranscript(ctx context.Context, sessionId uuid.UUID, query, answer string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	userMsg := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      protocol.RoleUser,
		Text:      query,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return err
	}

	assistantMsg := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      protocol.RoleAssistant,
		Text:      answer,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMsg); err != nil {
		return err
	}

	return uow.Commit()
}
