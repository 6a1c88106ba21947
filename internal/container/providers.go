package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/budget-ledger/internal/application/activity"
	"github.com/garyjia/budget-ledger/internal/application/dispatcher"
	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/application/service"
	infraLark "github.com/garyjia/budget-ledger/internal/infrastructure/external/lark"
	"github.com/garyjia/budget-ledger/internal/infrastructure/messaging/amqp"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/repository"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/budget-ledger/internal/interfaces/http"
	"github.com/garyjia/budget-ledger/internal/report"
	"github.com/garyjia/budget-ledger/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.TxManager
}

// ProvideDatabase migrates the database file and opens the connection pool.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(cfg.Path, logger); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          sqlDB,
		TransactionMgr: sqlite.NewTxManager(sqlDB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Category:    repository.NewCategoryRepository(sqlDB, logger),
		SubActivity: repository.NewSubActivityRepository(sqlDB, logger),
		Request:     repository.NewRequestRepository(sqlDB, logger),
		ExpenseItem: repository.NewExpenseItemRepository(sqlDB, logger),
		BudgetLog:   repository.NewBudgetLogRepository(sqlDB, logger),
		Expense:     repository.NewExpenseRepository(sqlDB, logger),
		Activity:    repository.NewActivityLogRepository(sqlDB, logger),
	}, nil
}

// ProvideActivityPublisher connects the AMQP publisher. Returns nil when disabled.
func ProvideActivityPublisher(cfg *AMQPConfig, logger *zap.Logger) (port.ActivityPublisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	publisher, err := amqp.NewPublisher(amqp.Config{
		URL:      cfg.URL,
		Exchange: cfg.Exchange,
		Queue:    cfg.Queue,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity publisher: %w", err)
	}
	return publisher, nil
}

// ProvideNotifier creates the Lark requester notifier. Returns nil when disabled.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) port.RequesterNotifier {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	larkCfg := infraLark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		ReceiveIDType: cfg.ReceiveIDType,
		BaseURL:       cfg.BaseURL,
	}
	return infraLark.NewMessenger(larkCfg, logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	), nil
}

const externalSinkTimeout = 10 * time.Second

// SinkDeps holds dependencies of the activity sinks.
type SinkDeps struct {
	Repos      *RepositoryBundle
	Dispatcher dispatcher.Dispatcher
	Publisher  port.ActivityPublisher
	Notifier   port.RequesterNotifier
}

// RegisterActivitySinks subscribes the activity log and the optional publisher and notifier.
func RegisterActivitySinks(deps *SinkDeps) error {
	if deps == nil || deps.Repos == nil || deps.Dispatcher == nil {
		return fmt.Errorf("repositories and dispatcher are required")
	}

	return activity.Register(deps.Dispatcher, activity.Sinks{
		ActivityRepo:    deps.Repos.Activity,
		RequestRepo:     deps.Repos.Request,
		Publisher:       deps.Publisher,
		Notifier:        deps.Notifier,
		NotifyAsync:     true,
		ExternalTimeout: externalSinkTimeout,
	})
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Events    service.EventPublisher
	Budget    *BudgetConfig
	Now       func() time.Time
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Budget == nil {
		return nil, fmt.Errorf("budget config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos

	resolver := service.NewCategoryResolver(repos.Category, service.NewFiscalYear(deps.Budget.FiscalYearStartMonth), now, serviceLogger)
	checker := service.NewAllocationChecker(repos.SubActivity, repos.Request)
	engine := service.NewReconciliationEngine(resolver, repos.Category, repos.BudgetLog, now, serviceLogger)
	materializer := service.NewExpenseMaterializer(resolver, repos.Expense, deps.Budget.ExpenseRevertMode, now, serviceLogger)

	return &ServiceBundle{
		Requests: service.NewRequestService(service.RequestServiceDeps{
			RequestRepo:  repos.Request,
			ItemRepo:     repos.ExpenseItem,
			ActivityRepo: repos.Activity,
			TxManager:    deps.TxManager,
			Checker:      checker,
			Engine:       engine,
			Materializer: materializer,
			Events:       deps.Events,
			Now:          now,
			Logger:       serviceLogger,
		}),
		Catalog: service.NewCatalogService(
			repos.Category,
			repos.SubActivity,
			repos.BudgetLog,
			repos.Expense,
			checker,
			resolver,
			serviceLogger,
		),
	}, nil
}

// ProvideHTTPServer creates the HTTP server over the application services.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, health httpapi.HealthFunc, logger *zap.Logger) (*httpapi.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	return httpapi.NewServer(
		httpapi.ServerConfig{
			Host:            cfg.Host,
			Port:            cfg.Port,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Mode:            cfg.Mode,
		},
		services.Requests,
		services.Catalog,
		report.NewLedgerExporter(logger),
		health,
		&zapLoggerAdapter{logger: logger},
	), nil
}

// healthFunc adapts the container health report to the HTTP health endpoint
func (c *Container) healthFunc(ctx context.Context) (bool, interface{}) {
	status := c.Health(ctx)
	return status.Overall, status.Components
}
