package hub

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster delivers outbound events to clients.
type Broadcaster interface {
	Broadcast(ev OutboundEvent)
	SendTo(id string, ev OutboundEvent)
}

// client is one registry entry. out is nil until the websocket upgrade
// completes and the connection attaches its queue.
type client struct {
	id  string
	out chan<- []byte
}

// Registry tracks connected clients and their outbound queues.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Sends never block: a full or closed queue is logged and skipped.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Register creates a placeholder entry with no channel and returns its ID.
// IDs are UUIDs without hyphens so they drop straight into a URL path.
func (r *Registry) Register() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	r.mu.Lock()
	r.clients[id] = &client{id: id}
	r.mu.Unlock()

	r.logger.Debug("client registered", "client_id", id, "clients", r.Count())
	return id
}

// Attach binds an outbound queue to a registered client.
func (r *Registry) Attach(id string, out chan<- []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return ErrClientNotFound
	}
	c.out = out
	return nil
}

// Remove deletes a client. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, existed := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()

	if existed {
		r.logger.Debug("client removed", "client_id", id, "clients", r.Count())
	}
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[id]
	return ok
}

// Count returns the number of registered clients, attached or not.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Connected returns the number of clients with an attached channel.
func (r *Registry) Connected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.clients {
		if c.out != nil {
			n++
		}
	}
	return n
}

// SendTo enqueues ev for one client. Failures are logged, never returned:
// a dead client is reaped when its own read loop ends.
func (r *Registry) SendTo(id string, ev OutboundEvent) {
	r.mu.RLock()
	c, ok := r.clients[id]
	var out chan<- []byte
	if ok {
		out = c.out
	}
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("send to unknown client", "client_id", id, "response_type", ev.Type)
		return
	}
	if out == nil {
		r.logger.Debug("client not attached yet, dropping event", "client_id", id, "response_type", ev.Type)
		return
	}

	data, err := ev.Encode()
	if err != nil {
		r.logger.Error("failed to encode outbound event", "response_type", ev.Type, "error", err)
		return
	}

	if err := enqueue(out, data); err != nil {
		r.logger.Warn("send to client failed", "client_id", id, "response_type", ev.Type, "error", err)
	}
}

// Broadcast enqueues ev for every attached client. A failure for one
// client does not affect the others.
func (r *Registry) Broadcast(ev OutboundEvent) {
	data, err := ev.Encode()
	if err != nil {
		r.logger.Error("failed to encode broadcast event", "response_type", ev.Type, "error", err)
		return
	}

	// Snapshot under the lock, send outside it
	r.mu.RLock()
	targets := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.out != nil {
			targets = append(targets, &client{id: c.id, out: c.out})
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if err := enqueue(c.out, data); err != nil {
			r.logger.Warn("broadcast to client failed", "client_id", c.id, "response_type", ev.Type, "error", err)
		}
	}
	r.logger.Debug("broadcast sent", "response_type", ev.Type, "recipients", len(targets))
}

// enqueue performs a non-blocking send. A send on a queue closed by a
// disconnecting client panics; that panic is turned into ErrClientGone.
func enqueue(out chan<- []byte, data []byte) (err error) {
	if out == nil {
		return ErrNoSender
	}
	defer func() {
		if recover() != nil {
			err = ErrClientGone
		}
	}()

	select {
	case out <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}
