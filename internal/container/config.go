// Package container provides dependency injection and lifecycle management
// for the budget ledger service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Budget   BudgetConfig
	AMQP     AMQPConfig
	Lark     LarkConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Mode is the gin mode (debug, release or test)
	Mode string
}

// BudgetConfig holds ledger behaviour settings.
type BudgetConfig struct {
	// FiscalYearStartMonth is the first month (1-12) of the fiscal year
	FiscalYearStartMonth int

	// ExpenseRevertMode selects how materialized expenses are found on revert
	ExpenseRevertMode string
}

// AMQPConfig holds activity publisher settings. The publisher is optional.
type AMQPConfig struct {
	Enabled  bool
	URL      string
	Exchange string
	Queue    string
}

// LarkConfig holds requester notification settings. Notifications are optional.
type LarkConfig struct {
	Enabled       bool
	AppID         string
	AppSecret     string
	ReceiveIDType string
	BaseURL       string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/budget.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Mode:            "release",
		},
		Budget: BudgetConfig{
			FiscalYearStartMonth: 1,
			ExpenseRevertMode:    "request_id",
		},
		AMQP: AMQPConfig{
			Exchange: "budget.activity",
			Queue:    "budget.activity.log",
		},
		Lark: LarkConfig{
			ReceiveIDType: "user_id",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Budget.FiscalYearStartMonth < 1 || c.Budget.FiscalYearStartMonth > 12 {
		return fmt.Errorf("budget.fiscal_year_start_month must be between 1 and 12")
	}

	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return fmt.Errorf("amqp.url is required when amqp is enabled")
	}

	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}

	return nil
}
