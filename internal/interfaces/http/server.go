// Package http exposes the budget ledger over a JSON API served by gin.
// Handlers decode and validate input, call the request and catalog services
// and map their typed errors to status codes.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-ledger/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// LedgerWriter renders a fiscal-year ledger snapshot
type LedgerWriter interface {
	Write(w io.Writer, snapshot *service.LedgerSnapshot) error
}

// HealthFunc reports whether the process is healthy along with per-component detail
type HealthFunc func(ctx context.Context) (bool, interface{})

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string // gin mode: debug, release or test
}

// DefaultServerConfig listens on :8080 in release mode
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Mode:            gin.ReleaseMode,
	}
}

// Server serves the ledger API
type Server struct {
	config   ServerConfig
	router   *gin.Engine
	handlers *Handlers
	logger   Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	requests service.RequestService,
	catalog service.CatalogService,
	exporter LedgerWriter,
	health HealthFunc,
	logger Logger,
) *Server {
	mode := config.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		handlers: NewHandlers(requests, catalog, exporter, health, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(actorMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		requests := api.Group("/requests")
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/activity", h.GetRequestActivity)
		requests.PUT("/:id/approve", h.ApproveRequest)
		requests.PUT("/:id/reject", h.RejectRequest)
		requests.PUT("/:id/submit-expense", h.SubmitExpense)
		requests.PUT("/:id/reject-expense", h.RejectExpense)
		requests.PUT("/:id/complete", h.CompleteRequest)
		requests.PUT("/:id/revert-complete", h.RevertComplete)
		requests.PUT("/:id/status", h.UpdateRequestStatus)
		requests.DELETE("/:id", h.DeleteRequest)

		categories := api.Group("/categories")
		categories.POST("", h.CreateCategory)
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.GET("/:id/logs", h.GetCategoryLogs)
		categories.GET("/:id/expenses", h.GetCategoryExpenses)
		categories.GET("/:id/sub-activities", h.ListSubActivities)

		api.POST("/sub-activities", h.CreateSubActivity)

		api.GET("/reports/ledger.xlsx", h.ExportLedger)
	}
}

// Start binds the listen address, then serves until ctx is cancelled or the
// listener fails. A bind error is returned before anything is served.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("Budget ledger API listening", "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop drains in-flight requests within the shutdown timeout. Safe to call
// when the server never started or has already stopped.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router exposes the gin engine so tests can drive it with httptest
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address is the host:port the server listens on
func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}
