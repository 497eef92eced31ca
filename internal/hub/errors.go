package hub

import "errors"

var (
	// ErrClientNotFound is returned when a client ID was never registered
	// or has already been removed.
	ErrClientNotFound = errors.New("hub: client not found")

	// ErrClientGone is returned when a client's outbound queue has been closed.
	ErrClientGone = errors.New("hub: client disconnected")

	// ErrSendBufferFull is returned when a client's outbound queue is full.
	ErrSendBufferFull = errors.New("hub: client send buffer full")

	// ErrNoSender is returned when sending to a client that has not attached a channel yet.
	ErrNoSender = errors.New("hub: client has no channel attached")

	// ErrUnknownEvent is returned when an inbound event_type is not recognised.
	ErrUnknownEvent = errors.New("hub: unknown event type")
)
