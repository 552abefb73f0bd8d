package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zuoweichuan/sounder-saas/internal/auth"
	"github.com/zuoweichuan/sounder-saas/internal/device"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/config"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/influxdb"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/logging"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/mqtt"
	"github.com/zuoweichuan/sounder-saas/internal/tenant"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker reports the liveness of a backing component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
//
// MQTT and Influx are optional: when nil the corresponding features
// (broadcast fan-out, activity history) are simply absent.
type Deps struct {
	Config     config.APIConfig
	Events     config.EventsConfig
	Logger     *logging.Logger
	Tokens     *auth.TokenService
	Users      auth.UserRepository
	Tenants    tenant.Repository
	Devices    device.Repository
	Dispatcher *device.Dispatcher
	Database   HealthChecker
	MQTT       *mqtt.Client
	Influx     *influxdb.Client
	Version    string
}

// Server is the HTTP API server for the Sounder control plane.
//
// It manages the HTTP listener, routes, middleware, the WebSocket event hub,
// and the single-use ticket store for event stream authentication. Create
// with New() and start with Start().
type Server struct {
	cfg        config.APIConfig
	eventsCfg  config.EventsConfig
	logger     *logging.Logger
	tokens     *auth.TokenService
	users      auth.UserRepository
	tenants    tenant.Repository
	devices    device.Repository
	dispatcher *device.Dispatcher
	db         HealthChecker
	mqtt       *mqtt.Client
	influx     *influxdb.Client
	version    string

	server  *http.Server
	hub     *Hub
	tickets *ticketStore
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if deps.Users == nil || deps.Tenants == nil || deps.Devices == nil {
		return nil, fmt.Errorf("user, tenant and device repositories are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("control dispatcher is required")
	}

	s := &Server{
		cfg:        deps.Config,
		eventsCfg:  deps.Events,
		logger:     deps.Logger,
		tokens:     deps.Tokens,
		users:      deps.Users,
		tenants:    deps.Tenants,
		devices:    deps.Devices,
		dispatcher: deps.Dispatcher,
		db:         deps.Database,
		mqtt:       deps.MQTT,
		influx:     deps.Influx,
		version:    deps.Version,
		tickets:    newTicketStore(),
	}

	return s, nil
}

// Hub returns the server's WebSocket event hub. Valid after Start().
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It creates the WebSocket hub, starts the periodic ticket cleanup, builds
// the router, and launches the HTTP listener in a background goroutine. The
// server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.eventsCfg, s.logger)
	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop background goroutines (hub, ticket cleanup).
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
