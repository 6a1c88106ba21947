package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/budget-ledger/internal/application/dispatcher"
	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/application/service"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/budget-ledger/internal/interfaces/http"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB        *sql.DB
	db           *sqlite.TxManager
	repositories *RepositoryBundle

	// Infrastructure - External
	publisher port.ActivityPublisher
	notifier  port.RequesterNotifier

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Interfaces
	server *httpapi.Server

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Category    port.CategoryRepository
	SubActivity port.SubActivityRepository
	Request     port.RequestRepository
	ExpenseItem port.ExpenseItemRepository
	BudgetLog   port.BudgetLogRepository
	Expense     port.ExpenseRepository
	Activity    port.ActivityLogRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Requests service.RequestService
	Catalog  service.CatalogService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start builds the ledger in dependency order: database and repositories,
// AMQP and Lark clients, the dispatcher with its activity sinks, services
// and finally the HTTP server. The server is built but not started; run
// Server().Start. A failed step releases everything built before it.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"database", c.initDatabase},
		{"external clients", c.initExternalClients},
		{"activity sinks", c.initDispatcher},
		{"services", c.initServices},
		{"http server", c.initServer},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			c.teardown()
			return fmt.Errorf("initialize %s: %w", step.name, err)
		}
		c.logger.Debug("Component initialized", zap.String("component", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Budget ledger ready",
		zap.String("database", c.config.Database.Path),
		zap.String("address", c.server.Address()),
		zap.Bool("amqp", c.publisher != nil),
		zap.Bool("lark", c.notifier != nil))

	return nil
}

// Close releases every component in reverse start order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	err := errors.Join(c.teardown()...)
	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		c.logger.Error("Budget ledger closed with errors", zap.Error(err))
		return fmt.Errorf("close container: %w", err)
	}
	c.logger.Info("Budget ledger closed")
	return nil
}

// teardown releases whatever has been initialized. Queued async deliveries
// drain in dispatcher.Close before the publisher and database go away.
func (c *Container) teardown() []error {
	var errs []error
	release := func(component string, close func() error) {
		if err := close(); err != nil {
			c.logger.Error("Failed to close component", zap.String("component", component), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", component, err))
			return
		}
		c.logger.Debug("Component closed", zap.String("component", component))
	}

	if c.server != nil {
		release("http server", c.server.Stop)
		c.server = nil
	}
	c.services = nil

	if c.dispatcher != nil {
		release("dispatcher", c.dispatcher.Close)
		c.dispatcher = nil
	}

	if c.publisher != nil {
		release("amqp publisher", c.publisher.Close)
		c.publisher = nil
	}
	c.notifier = nil

	if c.sqlDB != nil {
		release("database", c.sqlDB.Close)
		c.sqlDB = nil
		c.db = nil
		c.repositories = nil
	}

	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	report := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	switch {
	case c.sqlDB == nil:
		report("database", ComponentHealth{Healthy: false, Message: "not initialized"})
	default:
		if err := c.sqlDB.PingContext(ctx); err != nil {
			report("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			report("database", ComponentHealth{Healthy: true})
		}
	}

	if c.dispatcher != nil {
		report("dispatcher", ComponentHealth{Healthy: true})
	} else {
		report("dispatcher", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.repositories != nil {
		report("repositories", ComponentHealth{Healthy: true})
	} else {
		report("repositories", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.config.AMQP.Enabled {
		report("amqp", ComponentHealth{Healthy: c.publisher != nil})
	}
	if c.config.Lark.Enabled {
		report("lark", ComponentHealth{Healthy: c.notifier != nil})
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	c.repositories, err = ProvideRepositories(c.sqlDB, c.logger)
	return err
}

// initExternalClients connects the optional AMQP publisher and Lark notifier.
func (c *Container) initExternalClients() error {
	publisher, err := ProvideActivityPublisher(&c.config.AMQP, c.logger)
	if err != nil {
		return err
	}
	c.publisher = publisher
	c.notifier = ProvideNotifier(&c.config.Lark, c.logger)
	return nil
}

// initDispatcher creates the dispatcher and subscribes the activity sinks.
func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	return RegisterActivitySinks(&SinkDeps{
		Repos:      c.repositories,
		Dispatcher: c.dispatcher,
		Publisher:  c.publisher,
		Notifier:   c.notifier,
	})
}

// initServices initializes all application services using providers.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.db,
		Events:    c.dispatcher,
		Budget:    &c.config.Budget,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// initServer builds the HTTP server.
func (c *Container) initServer() error {
	server, err := ProvideHTTPServer(&c.config.Server, c.services, c.healthFunc, c.logger)
	if err != nil {
		return err
	}
	c.server = server
	return nil
}

// Server returns the HTTP server, nil before Start.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces of
// the service, dispatcher and http packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
