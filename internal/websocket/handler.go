package websocket

import (
	"context"
	"encoding/json"
	"time"

	"mesh-explorer-be/internal/config"
	"mesh-explorer-be/internal/pkg/logger"
	"mesh-explorer-be/internal/pkg/serverutils"
	"mesh-explorer-be/internal/service"
	"mesh-explorer-be/pkg/pipeline"
	"mesh-explorer-be/pkg/protocol"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PipelineHandler speaks the exploration protocol over one websocket
// connection: `connected` ack, then per inbound command a run of progress
// events followed by a single result or error.
type PipelineHandler struct {
	hub             *Hub
	sessionService  service.ISessionService
	pipelineService service.IPipelineService
	queryService    service.IQueryService
	cfg             config.PipelineConfig
	log             logger.ILogger

	// activeRuns guards one run at a time per session, across connections.
	activeRuns *cache.Cache
}

func NewPipelineHandler(
	hub *Hub,
	sessionService service.ISessionService,
	pipelineService service.IPipelineService,
	queryService service.IQueryService,
	cfg config.PipelineConfig,
	log logger.ILogger,
) *PipelineHandler {
	return &PipelineHandler{
		hub:             hub,
		sessionService:  sessionService,
		pipelineService: pipelineService,
		queryService:    queryService,
		cfg:             cfg,
		log:             log,
		activeRuns:      cache.New(10*time.Minute, time.Minute),
	}
}

// Serve owns the connection for its lifetime. The calling fiber handler has
// already been hijacked, so authentication happens here: failures close the
// socket with the reserved auth close code.
func (h *PipelineHandler) Serve(c *websocket.Conn) {
	userId, ok := h.authenticate(c)
	if !ok {
		h.closeWith(c, protocol.CloseAuthFailure, "authentication failed")
		return
	}

	sessionId, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		h.closeWith(c, websocket.ClosePolicyViolation, "malformed session id")
		return
	}

	ctx := context.Background()
	if _, err := h.sessionService.GetOwned(ctx, userId, sessionId); err != nil {
		h.closeWith(c, protocol.CloseAuthFailure, "session not accessible")
		return
	}

	client := &Client{
		Hub:       h.hub,
		Conn:      c,
		SessionID: sessionId,
		UserID:    userId,
		Send:      make(chan []byte, 256),
	}
	h.hub.register <- client
	go client.writePump()

	h.hub.Publish(sessionId, protocol.Event{
		Type:      protocol.TypeConnected,
		SessionID: sessionId.String(),
	})

	h.readLoop(ctx, client)
}

func (h *PipelineHandler) authenticate(c *websocket.Conn) (uuid.UUID, bool) {
	claims, err := serverutils.ParseToken(c.Query("token"))
	if err != nil {
		return uuid.Nil, false
	}
	raw, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return userId, true
}

func (h *PipelineHandler) readLoop(ctx context.Context, client *Client) {
	defer func() {
		h.hub.unregister <- client
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("PipelineWS", "Read error", map[string]interface{}{
					"session_id": client.SessionID.String(),
					"error":      err.Error(),
				})
			}
			return
		}
		// Commands keep the read deadline alive too.
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd protocol.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.publishError(client.SessionID, "malformed command")
			continue
		}
		h.dispatch(ctx, client, cmd)
	}
}

func (h *PipelineHandler) dispatch(ctx context.Context, client *Client, cmd protocol.Command) {
	runKey := client.SessionID.String()
	if _, busy := h.activeRuns.Get(runKey); busy {
		h.publishError(client.SessionID, "a run is already in progress")
		return
	}
	h.activeRuns.Set(runKey, true, cache.DefaultExpiration)
	defer h.activeRuns.Delete(runKey)

	emit := func(step protocol.Phase, detail map[string]interface{}, explanation string) {
		h.hub.Publish(client.SessionID, protocol.Event{
			Type:        protocol.TypeProgress,
			SessionID:   client.SessionID.String(),
			Step:        string(step),
			Detail:      detail,
			Explanation: explanation,
		})
	}

	switch cmd.Type {
	case protocol.CmdUploadAndSegment:
		result, err := h.pipelineService.RunSegmentation(ctx, client.SessionID, h.params(cmd), emit)
		if err != nil {
			h.publishError(client.SessionID, err.Error())
			return
		}
		h.publishResult(client.SessionID, result)

	case protocol.CmdQuery:
		if cmd.Query == "" {
			h.publishError(client.SessionID, "empty query")
			return
		}
		result, err := h.queryService.Answer(ctx, client.SessionID, cmd.Query, emit)
		if err != nil {
			h.publishError(client.SessionID, err.Error())
			return
		}
		h.publishResult(client.SessionID, result)

	default:
		h.publishError(client.SessionID, "unknown command type: "+cmd.Type)
	}
}

func (h *PipelineHandler) params(cmd protocol.Command) pipeline.Params {
	p := pipeline.Params{
		TargetStep:      cmd.TargetStep,
		DownsampleNodes: cmd.DownsampleNodes,
		Embed:           true,
	}
	if p.TargetStep == 0 {
		p.TargetStep = h.cfg.TargetStep
	}
	if p.DownsampleNodes == 0 {
		p.DownsampleNodes = h.cfg.DownsampleNodes
	}
	if cmd.Embed != nil {
		p.Embed = *cmd.Embed
	}
	return p
}

func (h *PipelineHandler) publishResult(sessionId uuid.UUID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.publishError(sessionId, "failed to encode result")
		return
	}
	h.hub.Publish(sessionId, protocol.Event{
		Type:      protocol.TypeResult,
		SessionID: sessionId.String(),
		Data:      data,
	})
}

func (h *PipelineHandler) publishError(sessionId uuid.UUID, message string) {
	h.hub.Publish(sessionId, protocol.Event{
		Type:      protocol.TypeError,
		SessionID: sessionId.String(),
		Message:   message,
	})
}

func (h *PipelineHandler) closeWith(c *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.Close()
}
