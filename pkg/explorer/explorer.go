package explorer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mesh-explorer-be/pkg/protocol"
	"mesh-explorer-be/pkg/render"
	"mesh-explorer-be/pkg/session"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Explorer wires one session's REST data, streaming pipeline and render
// engine together. It owns the restore flow: on open, previously computed
// state (mesh, segmentation, transcript) is fetched and replayed into the
// engine before the stream connects, so a revisited session shows its last
// known state immediately.
type Explorer struct {
	mu sync.Mutex

	client     *Client
	engine     *render.Engine
	controller *session.Controller
	logger     *zap.Logger

	// meshCache avoids refetching geometry when hopping between sessions.
	meshCache *cache.Cache

	sessionID  string
	transcript []protocol.ChatMessage

	// Callbacks surfaced to the UI layer. Optional.
	OnTranscript func(messages []protocol.ChatMessage)
	OnPhase      func(phase protocol.Phase)
	OnProgress   func(ev protocol.ProgressEvent)
	OnError      func(kind session.ErrorKind, message string)
}

// New builds an Explorer around a REST client. The clock is injectable for
// tests; pass nil for wall time.
func New(client *Client, dialer session.Dialer, logger *zap.Logger, clock render.Clock) *Explorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Explorer{
		client:    client,
		engine:    render.NewEngine(clock),
		logger:    logger,
		meshCache: cache.New(30*time.Minute, 5*time.Minute),
	}
	e.controller = session.NewController(dialer, logger, session.Callbacks{
		OnPhaseChange:   e.handlePhase,
		OnProgress:      e.handleProgress,
		OnSegmentResult: e.handleSegmentResult,
		OnQueryResult:   e.handleQueryResult,
		OnError:         e.handleError,
	})
	return e
}

// Engine exposes the render engine for view wiring.
func (e *Explorer) Engine() *render.Engine {
	return e.engine
}

// Controller exposes the underlying session controller.
func (e *Explorer) Controller() *session.Controller {
	return e.controller
}

// Transcript returns a copy of the assembled transcript.
func (e *Explorer) Transcript() []protocol.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]protocol.ChatMessage, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// OpenOptions configure Open.
type OpenOptions struct {
	// Fresh marks a just-uploaded session; the full pipeline chain
	// (segmentation, then an automatic first query) runs on connect.
	Fresh bool
	// InitialPrompt overrides the default automatic first query.
	InitialPrompt string
}

// Open restores a session into the engine and connects its stream. A mesh
// fetch failure is terminal: the view shows a load error and no connection
// is attempted. Missing segmentation and transcript are normal for young
// sessions and restore to empty.
func (e *Explorer) Open(ctx context.Context, sessionID string, opts OpenOptions) error {
	e.mu.Lock()
	e.sessionID = sessionID
	e.transcript = nil
	e.mu.Unlock()

	mesh, err := e.loadMesh(ctx, sessionID)
	if err != nil {
		e.engine.SetLoadError(err)
		return err
	}
	e.engine.SetMesh(mesh)

	transcript, err := e.client.FetchTranscript(ctx, sessionID)
	if err != nil {
		e.logger.Warn("transcript fetch failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	e.mu.Lock()
	e.transcript = transcript
	e.mu.Unlock()
	e.notifyTranscript()

	segments, err := e.client.FetchSegments(ctx, sessionID)
	if err != nil {
		e.logger.Warn("segments fetch failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	fresh := opts.Fresh
	if segments != nil {
		// Already segmented: restore instead of re-running the pipeline.
		e.engine.SetSegmentResult(segments)
		e.controller.RestoreSegments()
		fresh = false
	}

	e.controller.Connect(ctx, e.client.WebsocketURL(sessionID), e.client.Token(), sessionID, session.ConnectOptions{
		Fresh:         fresh,
		InitialPrompt: opts.InitialPrompt,
	})
	return nil
}

// Ask sends a query over the live stream.
func (e *Explorer) Ask(text string) {
	e.controller.SendQuery(text)
}

// Close disconnects the stream and tears down the engine.
func (e *Explorer) Close() {
	e.controller.Disconnect()
	e.engine.Teardown()
}

func (e *Explorer) loadMesh(ctx context.Context, sessionID string) (*protocol.SurfaceMesh, error) {
	if cached, ok := e.meshCache.Get(sessionID); ok {
		return cached.(*protocol.SurfaceMesh), nil
	}
	mesh, err := e.client.FetchMesh(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e.meshCache.Set(sessionID, mesh, cache.DefaultExpiration)
	return mesh, nil
}

func (e *Explorer) handlePhase(phase protocol.Phase) {
	if e.OnPhase != nil {
		e.OnPhase(phase)
	}
}

func (e *Explorer) handleProgress(ev protocol.ProgressEvent) {
	if e.OnProgress != nil {
		e.OnProgress(ev)
	}
}

func (e *Explorer) handleSegmentResult(result *protocol.SegmentResult, _ bool) {
	e.engine.SetSegmentResult(result)

	e.mu.Lock()
	e.transcript = append(e.transcript, protocol.ChatMessage{
		Role:      protocol.RoleSystem,
		Text:      fmt.Sprintf("Mesh segmented into %d parts.", result.Summary.TotalSegments),
		CreatedAt: time.Now(),
	})
	e.mu.Unlock()
	e.notifyTranscript()
}

func (e *Explorer) handleQueryResult(result *protocol.QueryResult) {
	e.engine.SetHighlights(result.HighlightIDs)

	now := time.Now()
	e.mu.Lock()
	e.transcript = append(e.transcript,
		protocol.ChatMessage{Role: protocol.RoleUser, Text: result.Query, CreatedAt: now},
		protocol.ChatMessage{Role: protocol.RoleAssistant, Text: result.Answer, CreatedAt: now},
	)
	e.mu.Unlock()
	e.notifyTranscript()
}

func (e *Explorer) handleError(kind session.ErrorKind, message string) {
	e.logger.Warn("session error", zap.String("kind", string(kind)), zap.String("message", message))
	if e.OnError != nil {
		e.OnError(kind, message)
	}
}

func (e *Explorer) notifyTranscript() {
	if e.OnTranscript == nil {
		return
	}
	e.OnTranscript(e.Transcript())
}
