package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/budget-ledger/internal/config"
	"github.com/garyjia/budget-ledger/internal/container"
	"github.com/garyjia/budget-ledger/pkg/utils"
)

const serviceName = "budget-ledger"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables take precedence
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    serviceName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting budget ledger",
		zap.Int("port", cfg.Server.Port),
		zap.Int("fiscal_year_start_month", cfg.Budget.FiscalYearStartMonth),
		zap.String("expense_revert_mode", cfg.Budget.ExpenseRevertMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown failed", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Server().Start(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		return err
	}

	logger.Info("Server exited successfully")
	return nil
}
