package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// RegisterResponse tells a client where to open its websocket.
type RegisterResponse struct {
	URL string `json:"url"`
}

// handleRegister creates a registry entry with no channel and returns the
// websocket URL carrying its id.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	id := s.hub.Registry().Register()

	host := s.cfg.PublicHost
	if host == "" {
		host = r.Host
	}

	s.logger.Info("client registered", "client_id", id, "clients", s.hub.Registry().Count())
	writeJSON(w, http.StatusOK, RegisterResponse{
		URL: fmt.Sprintf("ws://%s/ws/%s", host, id),
	})
}

// handleUnregister removes a registry entry. Unknown ids are not an error.
func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.hub.Registry().Remove(id)
	s.logger.Info("client unregistered", "client_id", id)
	w.WriteHeader(http.StatusOK)
}

// handleWebSocket upgrades a registered client and runs its connection
// until it ends. The handler goroutine is owned by the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.hub.Registry().Contains(id) {
		writeNotFound(w, "client not registered")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "client_id", id, "error", err)
		return
	}

	if err := s.hub.Serve(s.baseCtx, id, conn); err != nil {
		s.logger.Warn("websocket connection rejected", "client_id", id, "error", err)
	}
}
