package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/iris/internal/rtu"
)

// Mirror receives copies of hub state for out-of-band consumers such as
// an MQTT broker. Mirror errors are logged and never reach clients.
type Mirror interface {
	PublishSnapshot(r *rtu.RTU) error
	PublishLock(rtuID string, locked bool) error
}

// Options configures a Hub.
type Options struct {
	RTU    *rtu.RTU
	Driver rtu.Driver
	Loader rtu.Loader
	Mirror Mirror
	Logger Logger

	// Connection settings. Zero values fall back to defaults.
	SendBuffer     int
	MaxMessageSize int64
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

// Default connection settings.
const (
	DefaultSendBuffer     = 256
	DefaultMaxMessageSize = 64 * 1024
	DefaultPingInterval   = 30 * time.Second
	DefaultPongTimeout    = 10 * time.Second
)

// Hub wires the registry, store and dispatcher together.
type Hub struct {
	registry   *Registry
	store      *Store
	dispatcher *Dispatcher
	bcast      Broadcaster
	loader     rtu.Loader
	mirror     Mirror
	logger     Logger
	conn       connConfig
}

// New creates a Hub owning opts.RTU.
func New(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	registry := NewRegistry(logger)
	h := &Hub{
		registry:   registry,
		store:      NewStore(opts.RTU, opts.Driver),
		dispatcher: NewDispatcher(opts.Loader, logger),
		bcast:      registry,
		loader:     opts.Loader,
		mirror:     opts.Mirror,
		logger:     logger,
		conn: connConfig{
			sendBuffer:     opts.SendBuffer,
			maxMessageSize: opts.MaxMessageSize,
			pingInterval:   opts.PingInterval,
			pongTimeout:    opts.PongTimeout,
		},
	}
	h.conn.applyDefaults()

	if opts.Mirror != nil && opts.RTU != nil {
		h.bcast = &mirroredBroadcaster{
			Broadcaster: registry,
			mirror:      opts.Mirror,
			rtuID:       opts.RTU.ID,
			logger:      logger,
		}
	}
	return h
}

// Registry returns the client registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Snapshot returns a copy of the current RTU without touching hardware.
func (h *Hub) Snapshot() *rtu.RTU { return h.store.Snapshot() }

// Dispatch runs cmd inside a Lock/Unlock bracket and broadcasts the result
// to every client.
func (h *Hub) Dispatch(ctx context.Context, cmd Command) OutboundEvent {
	var result OutboundEvent
	h.store.Bracket(h.bcast, func(tx *Tx) func() {
		result = h.dispatcher.Handle(ctx, tx, cmd)
		snap := tx.Snapshot()
		return func() {
			h.bcast.Broadcast(result)
			h.mirrorSnapshot(snap)
		}
	})
	return result
}

// Refresh reads all hardware into the store and broadcasts the snapshot.
// The snapshot is returned even when some devices failed.
func (h *Hub) Refresh(ctx context.Context) (*rtu.RTU, error) {
	var (
		snap *rtu.RTU
		err  error
	)
	h.store.Bracket(h.bcast, func(tx *Tx) func() {
		err = tx.Refresh(ctx)
		snap = tx.Snapshot()
		return func() { h.bcast.Broadcast(SnapshotEvent(snap.Clone())) }
	})
	return snap, err
}

// ApplySnapshot writes only the devices of incoming that differ from the
// store, then broadcasts the resulting snapshot. It returns the number of
// hardware writes made.
func (h *Hub) ApplySnapshot(ctx context.Context, incoming *rtu.RTU) (int, error) {
	if err := rtu.Validate(incoming, h.logger); err != nil {
		return 0, err
	}

	var (
		writes int
		err    error
	)
	h.store.Bracket(h.bcast, func(tx *Tx) func() {
		writes, err = Apply(ctx, tx, incoming)
		snap := tx.Snapshot()
		return func() { h.bcast.Broadcast(SnapshotEvent(snap)) }
	})
	if err != nil {
		return writes, err
	}
	h.logger.Info("rtu snapshot applied", "writes", writes)
	return writes, nil
}

// Generate builds a fresh RTU from configuration without applying it.
func (h *Hub) Generate() (*rtu.RTU, error) {
	if h.loader == nil {
		return nil, fmt.Errorf("rtu generation is not configured")
	}
	return h.loader()
}

// NewPoller creates a poller that refreshes this hub's store.
func (h *Hub) NewPoller(interval time.Duration) *Poller {
	return &Poller{
		store:    h.store,
		bcast:    h.bcast,
		interval: interval,
		logger:   h.logger,
	}
}

func (h *Hub) mirrorSnapshot(r *rtu.RTU) {
	if h.mirror == nil {
		return
	}
	if err := h.mirror.PublishSnapshot(r); err != nil {
		h.logger.Warn("mirror snapshot publish failed", "error", err)
	}
}

// mirroredBroadcaster forwards lock state and snapshots to a Mirror as
// they are broadcast to clients.
type mirroredBroadcaster struct {
	Broadcaster
	mirror Mirror
	rtuID  string
	logger Logger
}

func (m *mirroredBroadcaster) Broadcast(ev OutboundEvent) {
	m.Broadcaster.Broadcast(ev)

	var err error
	switch ev.Type {
	case ResponseLock:
		err = m.mirror.PublishLock(m.rtuID, true)
	case ResponseUnlock:
		err = m.mirror.PublishLock(m.rtuID, false)
	case ResponseRTUSnapshot:
		if snap := ev.Snapshot(); snap != nil {
			err = m.mirror.PublishSnapshot(snap)
		}
	}
	if err != nil {
		m.logger.Warn("mirror publish failed", "response_type", ev.Type, "error", err)
	}
}
