// Package api implements the HTTP surface of the Iris hub.
//
// This package provides:
//   - Client registration (GET /register, DELETE /register/{id})
//   - The websocket upgrade (GET /ws/{id}) handed off to the hub
//   - RTU endpoints: generate from config, refresh from hardware, enact a snapshot
//   - Health and metrics endpoints
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API owns no state. Registration and websocket traffic go to the
// hub's registry and connection handler; the RTU endpoints share the hub's
// store and its Lock/Unlock discipline, so HTTP callers and websocket
// clients never interleave hardware access.
//
// # Graceful Degradation
//
// The MQTT mirror is optional. When it is down, /health reports it as
// degraded but every endpoint keeps working.
package api
