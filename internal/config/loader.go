// Package config provides configuration management for the CCI Trader application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "CCI_TRADER"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand ${VAR} placeholders before parsing
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields. A missing config file is not an error; defaults and environment
// variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cci-trader")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("exchange.api_url", "https://api.binance.com")
	v.SetDefault("exchange.stream_url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("exchange.timeout_seconds", 30)
	v.SetDefault("exchange.max_retries", 5)
	v.SetDefault("exchange.rate_limit", 10.0)

	v.SetDefault("monitor.schedule", "*/15 * * * *")
	v.SetDefault("monitor.candle_count", 100)
	v.SetDefault("monitor.signal_ttl_minutes", 60)

	v.SetDefault("backtest.candle_count", 500)
	v.SetDefault("backtest.output_path", "output/backtest")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("strategy.timeframe", "1h")
	v.SetDefault("strategy.seed_money", 10000.0)
	v.SetDefault("strategy.start_amount", 2000.0)
	v.SetDefault("strategy.cci_length", 20)
	v.SetDefault("strategy.entry_threshold", 110.0)
	v.SetDefault("strategy.exit_threshold", 100.0)
	v.SetDefault("strategy.profit_target", 3.0)
	v.SetDefault("strategy.half_sell_profit_rate", 1.5)
	v.SetDefault("strategy.stage1_loss", 2.0)
	v.SetDefault("strategy.stage2_loss", 4.0)
	v.SetDefault("strategy.stage3_loss", 6.0)
	v.SetDefault("strategy.stage4_loss", 8.0)
	v.SetDefault("strategy.stop_loss_percent", 10.0)
	v.SetDefault("strategy.fee_rate", 0.05)
	v.SetDefault("strategy.stage_policy", "doubling")
}

// ReloadFromEnv reloads the configuration from the path named by
// CCI_TRADER_CONFIG_PATH, if set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
