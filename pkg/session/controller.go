package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mesh-explorer-be/pkg/protocol"

	"go.uber.org/zap"
)

// DefaultQuery is issued automatically after a freshly triggered
// segmentation when the caller supplied no initial prompt.
const DefaultQuery = "describe this geometry"

// ErrorKind classifies errors surfaced through Callbacks.OnError.
type ErrorKind string

const (
	ErrorTransport ErrorKind = "transport"
	ErrorProtocol  ErrorKind = "protocol"
)

// Callbacks receive controller events. All callbacks are optional and are
// invoked sequentially from the controller's reader goroutine, never
// concurrently with each other.
type Callbacks struct {
	OnPhaseChange   func(phase protocol.Phase)
	OnProgress      func(ev protocol.ProgressEvent)
	OnSegmentResult func(result *protocol.SegmentResult, fresh bool)
	OnQueryResult   func(result *protocol.QueryResult)
	OnError         func(kind ErrorKind, message string)
	OnAuthRequired  func()
}

// ConnectOptions configure one connection attempt.
type ConnectOptions struct {
	// Fresh marks a newly created (just uploaded) session: segmentation is
	// triggered automatically the first time the stream reports connected,
	// and the first segmentation result chains into an automatic query.
	Fresh bool
	// InitialPrompt overrides DefaultQuery for the automatic chained query.
	InitialPrompt string
}

// SegmentOptions are the parameters of an upload_and_segment command.
// Zero values fall back to the pipeline defaults.
type SegmentOptions struct {
	TargetStep      float64
	DownsampleNodes int
	Embed           *bool
}

// Controller owns one streaming connection per active exploration session
// and drives the pipeline phase state machine. At most one connection is
// live at a time; connecting again first tears down the previous one.
type Controller struct {
	mu     sync.Mutex
	dialer Dialer
	logger *zap.Logger
	cb     Callbacks

	phase     protocol.Phase
	expecting protocol.Expectation
	progress  []protocol.ProgressEvent

	conn Conn
	gen  int // connection generation; events from stale generations are discarded

	// Per-session one-shot flags, cleared immediately after use.
	autoSegment bool
	autoQuery   bool

	initialPrompt string
	sessionID     string

	// Callback invocations queued while mu is held, run after release so a
	// callback may safely call back into the controller.
	pending []func()

	now func() time.Time
}

func NewController(dialer Dialer, logger *zap.Logger, cb Callbacks) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		dialer: dialer,
		logger: logger,
		cb:     cb,
		phase:  protocol.PhaseIdle,
		now:    time.Now,
	}
}

// Phase returns the current pipeline phase.
func (c *Controller) Phase() protocol.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Progress returns a copy of the progress log of the current run.
func (c *Controller) Progress() []protocol.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.ProgressEvent, len(c.progress))
	copy(out, c.progress)
	return out
}

// Connect opens the session stream. Any previous connection is torn down
// first. The call does not block; connection progress is reported through
// the callbacks.
func (c *Controller) Connect(ctx context.Context, url, token, sessionID string, opts ConnectOptions) {
	c.mu.Lock()
	c.teardownLocked()
	c.sessionID = sessionID
	c.autoSegment = opts.Fresh
	c.autoQuery = opts.Fresh
	c.initialPrompt = opts.InitialPrompt
	c.gen++
	gen := c.gen
	c.setPhaseLocked(protocol.PhaseConnecting)
	notify := c.drainLocked()
	c.mu.Unlock()
	notify()

	go c.dial(ctx, gen, url, token)
}

func (c *Controller) dial(ctx context.Context, gen int, url, token string) {
	conn, err := c.dialer.Dial(ctx, url, token)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.failLocked(ErrorTransport, "failed to open session stream: "+err.Error())
		notify := c.drainLocked()
		c.mu.Unlock()
		notify()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(gen, conn)
}

func (c *Controller) readLoop(gen int, conn Conn) {
	for {
		data, err := conn.ReadMessage()

		c.mu.Lock()
		if gen != c.gen {
			// Teardown was initiated; discard everything after it.
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.handleReadError(err)
			notify := c.drainLocked()
			c.mu.Unlock()
			notify()
			return
		}
		c.handleMessage(data)
		notify := c.drainLocked()
		c.mu.Unlock()
		notify()
	}
}

// RestoreSegments marks the session as already segmented via the
// out-of-band fetch path. A late connected acknowledgment must not regress
// the phase afterwards, and no automatic query is ever chained.
func (c *Controller) RestoreSegments() {
	c.mu.Lock()
	c.autoSegment = false
	c.autoQuery = false
	c.setPhaseLocked(protocol.PhaseSegmentDone)
	notify := c.drainLocked()
	c.mu.Unlock()
	notify()
}

// TriggerSegmentation sends the segmentation command. Illegal while the
// connection is not open; logged and ignored in that case.
func (c *Controller) TriggerSegmentation(opts SegmentOptions) {
	c.mu.Lock()
	if c.conn == nil {
		c.logger.Warn("segmentation trigger ignored: connection not open",
			zap.String("session_id", c.sessionID))
		c.mu.Unlock()
		return
	}
	embed := true
	if opts.Embed != nil {
		embed = *opts.Embed
	}
	cmd := protocol.Command{
		Type:            protocol.CmdUploadAndSegment,
		TargetStep:      opts.TargetStep,
		DownsampleNodes: opts.DownsampleNodes,
		Embed:           &embed,
	}
	if cmd.TargetStep == 0 {
		cmd.TargetStep = 1.0
	}
	if cmd.DownsampleNodes == 0 {
		cmd.DownsampleNodes = 16
	}
	c.expecting = protocol.ExpectSegment
	c.progress = nil
	conn := c.conn
	c.mu.Unlock()

	if err := conn.WriteJSON(cmd); err != nil {
		c.onWriteError(err)
	}
}

// SendQuery sends a query command. Refused while the connection is not
// open or a prior run is still in a transient phase.
func (c *Controller) SendQuery(text string) {
	c.mu.Lock()
	if c.conn == nil {
		c.logger.Warn("query ignored: connection not open",
			zap.String("session_id", c.sessionID))
		c.mu.Unlock()
		return
	}
	if !c.phase.IsResting() {
		c.logger.Warn("query refused: pipeline run in progress",
			zap.String("session_id", c.sessionID),
			zap.String("phase", string(c.phase)))
		c.mu.Unlock()
		return
	}
	c.expecting = protocol.ExpectQuery
	conn := c.conn
	c.mu.Unlock()

	if err := conn.WriteJSON(protocol.Command{Type: protocol.CmdQuery, Query: text}); err != nil {
		c.onWriteError(err)
	}
}

// Disconnect closes the stream and returns the controller to idle.
// Safe to call repeatedly and with no active connection.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.teardownLocked()
	c.setPhaseLocked(protocol.PhaseIdle)
	notify := c.drainLocked()
	c.mu.Unlock()
	notify()
}

// --- internals (mu held unless noted) ---

func (c *Controller) teardownLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.gen++
	c.expecting = protocol.ExpectNone
	c.progress = nil
}

func (c *Controller) setPhaseLocked(p protocol.Phase) {
	if c.phase == p {
		return
	}
	c.phase = p
	if c.cb.OnPhaseChange != nil {
		cb := c.cb.OnPhaseChange
		c.pending = append(c.pending, func() { cb(p) })
	}
}

func (c *Controller) failLocked(kind ErrorKind, message string) {
	c.setPhaseLocked(protocol.PhaseError)
	if c.cb.OnError != nil {
		cb := c.cb.OnError
		c.pending = append(c.pending, func() { cb(kind, message) })
	}
}

func (c *Controller) handleReadError(err error) {
	if ce, ok := err.(*CloseError); ok && ce.Code == protocol.CloseAuthFailure {
		if c.cb.OnAuthRequired != nil {
			cb := c.cb.OnAuthRequired
			c.pending = append(c.pending, func() { cb() })
		}
		c.setPhaseLocked(protocol.PhaseError)
		return
	}
	c.failLocked(ErrorTransport, "session stream closed: "+err.Error())
}

func (c *Controller) handleMessage(data []byte) {
	ev, err := decodeEvent(data)
	if err != nil {
		c.failLocked(ErrorProtocol, "undecodable message: "+err.Error())
		return
	}

	switch ev.Type {
	case protocol.TypeConnected:
		// Monotonicity: a late ack never moves the phase backward once the
		// session is past connecting (e.g. segments restored via fetch).
		if c.phase != protocol.PhaseConnecting {
			c.logger.Warn("discarding stale connected ack",
				zap.String("phase", string(c.phase)))
			return
		}
		c.setPhaseLocked(protocol.PhaseConnected)
		if c.autoSegment {
			c.autoSegment = false
			c.pending = append(c.pending, func() { c.TriggerSegmentation(SegmentOptions{}) })
		}

	case protocol.TypeProgress:
		step := protocol.Phase(ev.Step)
		entry := protocol.ProgressEvent{
			Step:        step,
			Detail:      ev.Detail,
			Explanation: ev.Explanation,
			At:          c.now(),
		}
		c.progress = append(c.progress, entry)
		if protocol.IsSegmentStep(step) || protocol.IsQueryStep(step) {
			c.setPhaseLocked(step)
		}
		if c.cb.OnProgress != nil {
			cb := c.cb.OnProgress
			c.pending = append(c.pending, func() { cb(entry) })
		}

	case protocol.TypeResult:
		sr, qr, err := protocol.DecodeResult(ev.Data, c.expecting)
		c.expecting = protocol.ExpectNone
		if err != nil {
			c.failLocked(ErrorProtocol, "undecodable result payload: "+err.Error())
			return
		}
		if qr != nil {
			c.setPhaseLocked(protocol.PhaseQueryDone)
			if c.cb.OnQueryResult != nil {
				cb := c.cb.OnQueryResult
				c.pending = append(c.pending, func() { cb(qr) })
			}
			return
		}
		c.setPhaseLocked(protocol.PhaseSegmentDone)
		fresh := c.autoQuery
		if c.cb.OnSegmentResult != nil {
			cb := c.cb.OnSegmentResult
			c.pending = append(c.pending, func() { cb(sr, fresh) })
		}
		if c.autoQuery {
			// One automatic chained query per freshly triggered
			// segmentation, never for restored sessions.
			c.autoQuery = false
			query := c.initialPrompt
			if query == "" {
				query = DefaultQuery
			}
			c.pending = append(c.pending, func() { c.SendQuery(query) })
		}

	case protocol.TypeError:
		c.failLocked(ErrorProtocol, ev.Message)

	default:
		c.logger.Warn("unknown message type", zap.String("type", ev.Type))
	}
}

func (c *Controller) onWriteError(err error) {
	c.mu.Lock()
	c.failLocked(ErrorTransport, "failed to send command: "+err.Error())
	notify := c.drainLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller) drainLocked() func() {
	queued := c.pending
	c.pending = nil
	return func() {
		for _, fn := range queued {
			fn()
		}
	}
}

func decodeEvent(data []byte) (*protocol.Event, error) {
	var ev protocol.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
