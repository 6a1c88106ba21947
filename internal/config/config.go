package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is used when CONFIG_PATH is not set
const DefaultPath = "configs/config.yaml"

// Expense revert modes
const (
	RevertByRequestID     = "request_id"
	RevertByProjectPrefix = "project_prefix"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Lark     LarkConfig     `mapstructure:"lark"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// BudgetConfig holds ledger behaviour settings
type BudgetConfig struct {
	FiscalYearStartMonth int    `mapstructure:"fiscal_year_start_month"`
	ExpenseRevertMode    string `mapstructure:"expense_revert_mode"`
}

// AMQPConfig holds the activity event publisher configuration
type AMQPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

// LarkConfig holds Lark API configuration used for requester notifications
type LarkConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AppID         string `mapstructure:"app_id"`
	AppSecret     string `mapstructure:"app_secret"`
	ReceiveIDType string `mapstructure:"receive_id_type"`
	BaseURL       string `mapstructure:"base_url"`
}

// PathFromEnv returns CONFIG_PATH or the default config location
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "data/budget.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("budget.fiscal_year_start_month", 1)
	v.SetDefault("budget.expense_revert_mode", RevertByRequestID)

	v.SetDefault("amqp.enabled", false)
	v.SetDefault("amqp.exchange", "budget.activity")
	v.SetDefault("amqp.queue", "budget.activity.log")

	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.receive_id_type", "user_id")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"amqp.url":        "AMQP_URL",
		"lark.app_id":     "LARK_APP_ID",
		"lark.app_secret": "LARK_APP_SECRET",
		"database.path":   "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Budget.FiscalYearStartMonth < 1 || c.Budget.FiscalYearStartMonth > 12 {
		return fmt.Errorf("budget.fiscal_year_start_month must be between 1 and 12")
	}
	switch c.Budget.ExpenseRevertMode {
	case RevertByRequestID, RevertByProjectPrefix:
	default:
		return fmt.Errorf("budget.expense_revert_mode must be %s or %s", RevertByRequestID, RevertByProjectPrefix)
	}

	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return fmt.Errorf("amqp.url is required when amqp is enabled")
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when lark is enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark is enabled")
		}
	}

	return nil
}
