package hub

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the duplex message channel behind one client.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// ConnState is a connection's lifecycle stage.
type ConnState int32

// Connection states, in order.
const (
	StateRegistered ConnState = iota
	StateHandshaking
	StateStreaming
	StateTerminated
)

func (s ConnState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(s))
	}
}

type connConfig struct {
	sendBuffer     int
	maxMessageSize int64
	pingInterval   time.Duration
	pongTimeout    time.Duration
}

func (c *connConfig) applyDefaults() {
	if c.sendBuffer <= 0 {
		c.sendBuffer = DefaultSendBuffer
	}
	if c.maxMessageSize <= 0 {
		c.maxMessageSize = DefaultMaxMessageSize
	}
	if c.pingInterval <= 0 {
		c.pingInterval = DefaultPingInterval
	}
	if c.pongTimeout <= 0 {
		c.pongTimeout = DefaultPongTimeout
	}
}

// Connection drives one client from handshake to termination.
type Connection struct {
	id    string
	conn  Conn
	hub   *Hub
	send  chan []byte
	state atomic.Int32
	cfg   connConfig
}

// State returns the current lifecycle stage.
func (c *Connection) State() ConnState { return ConnState(c.state.Load()) }

func (c *Connection) setState(s ConnState) {
	c.state.Store(int32(s))
	c.hub.logger.Debug("connection state changed", "client_id", c.id, "state", s.String())
}

// Serve runs the connection for a registered client until the peer goes
// away or ctx is cancelled. It blocks. On return the client has been
// removed from the registry and conn is closed.
//
// Commands already dispatched when ctx is cancelled run to completion.
func (h *Hub) Serve(ctx context.Context, id string, conn Conn) error {
	if !h.registry.Contains(id) {
		conn.Close() //nolint:errcheck // Best-effort close of rejected connection
		return fmt.Errorf("serving %s: %w", id, ErrClientNotFound)
	}

	c := &Connection{
		id:   id,
		conn: conn,
		hub:  h,
		send: make(chan []byte, h.conn.sendBuffer),
		cfg:  h.conn,
	}
	c.run(ctx)
	return nil
}

func (c *Connection) run(ctx context.Context) {
	h := c.hub
	done := make(chan struct{})

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("connection panicked", "client_id", c.id, "panic", fmt.Sprint(r))
		}
		c.setState(StateTerminated)
		h.registry.Remove(c.id)
		close(c.send)
		close(done)
		c.conn.Close() //nolint:errcheck // Best-effort close
		h.logger.Info("client disconnected", "client_id", c.id, "clients", h.registry.Count())
	}()

	// Shutdown closes the socket, which unblocks the read loop.
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close() //nolint:errcheck // Best-effort close on shutdown
		case <-done:
		}
	}()

	c.setState(StateHandshaking)
	go c.writePump()
	if err := h.registry.Attach(c.id, c.send); err != nil {
		h.logger.Warn("attach failed", "client_id", c.id, "error", err)
		return
	}
	h.logger.Info("client connected", "client_id", c.id, "clients", h.registry.Count())

	work := context.WithoutCancel(ctx)
	c.handshake(work)

	c.setState(StateStreaming)
	c.readLoop(work)
}

// handshake refreshes the store and sends the snapshot to this client
// only, inside a fleet-wide Lock/Unlock so a joining client never sees a
// half-applied batch.
func (c *Connection) handshake(ctx context.Context) {
	h := c.hub
	h.store.Bracket(h.bcast, func(tx *Tx) func() {
		err := tx.Refresh(ctx)
		snap := tx.Snapshot()

		ev := SnapshotEvent(snap)
		if err != nil {
			h.logger.Warn("handshake refresh failed, sending last known state", "client_id", c.id, "error", err)
			ev = ErrorEvent(fmt.Sprintf("Could not update RTU: %v", err), RTUPayload{RTU: snap})
		}
		h.registry.SendTo(c.id, ev)
		return nil
	})
}

func (c *Connection) readLoop(ctx context.Context) {
	h := c.hub
	wait := c.cfg.pingInterval + c.cfg.pongTimeout

	c.conn.SetReadLimit(c.cfg.maxMessageSize)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			} else {
				h.logger.Debug("websocket closed", "client_id", c.id, "error", err)
			}
			return
		}
		// Any client message counts as liveness.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(wait))
		c.handleMessage(ctx, message)
	}
}

// handleMessage decodes and dispatches one inbound message. A message that
// cannot be decoded is answered with an Error to the sender only.
func (c *Connection) handleMessage(ctx context.Context, data []byte) {
	h := c.hub
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("event handler panicked", "client_id", c.id, "panic", fmt.Sprint(r))
			h.registry.SendTo(c.id, ErrorEvent("internal error handling event", nil))
		}
	}()

	cmd, err := DecodeInbound(data)
	if err != nil {
		h.logger.Warn("malformed inbound event", "client_id", c.id, "error", err)
		h.registry.SendTo(c.id, ErrorEvent(fmt.Sprintf("Could not parse event: %v", err), nil))
		return
	}

	h.Dispatch(ctx, cmd)
}

// writePump drains the outbound queue to the socket and keeps it alive
// with pings. It exits when the queue is closed or a write fails.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.cfg.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck // Best-effort close
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.pongTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.pongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
