// Package hub is the real-time synchronisation core of Iris.
//
// It keeps every connected UI client looking at the same view of the RTU
// and serialises all hardware access behind a single store lock.
//
// Components:
//   - Registry: connected clients and their outbound queues
//   - Events: the inbound command and outbound result protocol
//   - Connection: per-client handshake, read loop and write pump
//   - Dispatcher: executes inbound commands against the store
//   - Plan/Apply: diff a posted RTU against the store and write only changes
//   - Poller: periodic refresh from hardware, broadcast to all clients
//
// Locking:
//
// Every operation that touches device state runs inside Store.Bracket,
// which holds the store mutex for the whole multi-device operation and
// broadcasts Lock before and Unlock after it. Results are delivered after
// Unlock but before the mutex is released, so no two bracketed operations
// ever interleave on the wire. The registry has its own lock, and sends to
// clients never block: a slow client loses messages rather than stalling
// hardware work.
package hub
