package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/iris/internal/hub"
	"github.com/nerrad567/iris/internal/infrastructure/config"
	"github.com/nerrad567/iris/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by optional collaborators reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Hub     *hub.Hub
	Poller  *hub.Poller   // optional, reported on /metrics
	MQTT    HealthChecker // optional, reported on /health
	Logger  *logging.Logger
	Version string
}

// Server is the HTTP API server for the hub.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	hub       *hub.Hub
	poller    *hub.Poller
	mqtt      HealthChecker
	logger    *logging.Logger
	version   string
	startTime time.Time

	server   *http.Server
	listener net.Listener

	// baseCtx is handed to websocket connections; cancelling it on Close
	// disconnects every client.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("hub is required")
	}

	return &Server{
		cfg:       deps.Config,
		hub:       deps.Hub,
		poller:    deps.Poller,
		mqtt:      deps.MQTT,
		logger:    deps.Logger,
		version:   deps.Version,
		startTime: time.Now(),
		baseCtx:   context.Background(),
	}, nil
}

// Start binds the listener and serves HTTP in a background goroutine.
// A bind failure (port in use, etc.) is returned directly.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx, s.cancel = context.WithCancel(ctx)

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// Websocket clients are disconnected first, then in-flight requests get
// up to 10 seconds to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
