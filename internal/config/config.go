// Package config provides configuration management for the CCI Trader application.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/cci-trader/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig               `mapstructure:"app" validate:"required"`
	Database DatabaseConfig          `mapstructure:"database" validate:"required"`
	Exchange ExchangeConfig          `mapstructure:"exchange" validate:"required"`
	Monitor  MonitorConfig           `mapstructure:"monitor" validate:"required"`
	Backtest BacktestConfig          `mapstructure:"backtest" validate:"required"`
	Metrics  MetricsConfig           `mapstructure:"metrics" validate:"required"`
	Strategy models.StrategySettings `mapstructure:"strategy" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ExchangeConfig represents exchange API configuration
type ExchangeConfig struct {
	APIURL         string  `mapstructure:"api_url" validate:"required,url"`
	StreamURL      string  `mapstructure:"stream_url" validate:"required"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	FallbackSource string  `mapstructure:"fallback_source" validate:"omitempty,oneof=synthetic"`
}

// MonitorConfig represents the live signal monitor configuration
type MonitorConfig struct {
	Symbols           []string `mapstructure:"symbols" validate:"required,min=1"`
	Schedule          string   `mapstructure:"schedule" validate:"required"`
	CandleCount       int      `mapstructure:"candle_count" validate:"required,gt=0"`
	SignalTTLMinutes  int      `mapstructure:"signal_ttl_minutes" validate:"required,gt=0"`
	PersistSignals    bool     `mapstructure:"persist_signals"`
	StreamingEnabled  bool     `mapstructure:"streaming_enabled"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	CandleCount    int    `mapstructure:"candle_count" validate:"required,gt=0"`
	OutputPath     string `mapstructure:"output_path" validate:"required"`
	PersistResults bool   `mapstructure:"persist_results"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ExchangeTimeout returns the exchange request timeout as a duration
func (c *Config) ExchangeTimeout() time.Duration {
	return time.Duration(c.Exchange.TimeoutSeconds) * time.Second
}

// SignalTTL returns the monitor's signal dedup window as a duration
func (c *Config) SignalTTL() time.Duration {
	return time.Duration(c.Monitor.SignalTTLMinutes) * time.Minute
}
