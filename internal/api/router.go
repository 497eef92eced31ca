package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Connection lifecycle
	r.Get("/register", s.handleRegister)
	r.Delete("/register/{id}", s.handleUnregister)
	r.Get("/ws/{id}", s.handleWebSocket)

	// RTU operations over the shared store
	r.Route("/rtu", func(r chi.Router) {
		r.Get("/generate", s.handleGenerateRTU)
		r.Get("/update", s.handleUpdateRTU)
		r.Post("/enact", s.handleEnactRTU)
	})

	r.Get("/running", s.handleRunning)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	return r
}

// handleRunning is a liveness probe kept for existing front ends.
func (s *Server) handleRunning(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"running": "true"})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	body := map[string]any{
		"version": s.version,
		"rtu_id":  s.hub.Snapshot().ID,
	}

	if s.mqtt != nil {
		mqttStatus := "connected"
		if err := s.mqtt.HealthCheck(r.Context()); err != nil {
			mqttStatus = err.Error()
			status = "degraded"
		}
		body["mqtt"] = mqttStatus
	}

	body["status"] = status
	writeJSON(w, http.StatusOK, body)
}
