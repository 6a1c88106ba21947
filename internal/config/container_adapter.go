package config

import (
	"github.com/garyjia/budget-ledger/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			Mode:            c.Server.Mode,
		},
		Budget: container.BudgetConfig{
			FiscalYearStartMonth: c.Budget.FiscalYearStartMonth,
			ExpenseRevertMode:    c.Budget.ExpenseRevertMode,
		},
		AMQP: container.AMQPConfig{
			Enabled:  c.AMQP.Enabled,
			URL:      c.AMQP.URL,
			Exchange: c.AMQP.Exchange,
			Queue:    c.AMQP.Queue,
		},
		Lark: container.LarkConfig{
			Enabled:       c.Lark.Enabled,
			AppID:         c.Lark.AppID,
			AppSecret:     c.Lark.AppSecret,
			ReceiveIDType: c.Lark.ReceiveIDType,
			BaseURL:       c.Lark.BaseURL,
		},
	}
}
