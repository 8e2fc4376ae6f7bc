// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/backtest"
	"github.com/yourusername/cci-trader/internal/config"
	"github.com/yourusername/cci-trader/internal/database"
	"github.com/yourusername/cci-trader/internal/datasource"
	"github.com/yourusername/cci-trader/internal/logger"
	"github.com/yourusername/cci-trader/internal/metrics"
	"github.com/yourusername/cci-trader/internal/models"
	"github.com/yourusername/cci-trader/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		symbol     = flag.String("symbol", "", "Override trading symbol (e.g. BTCUSDT)")
		timeframe  = flag.String("timeframe", "", "Override candle interval: 15m, 1h, 4h, 1d, 1w")
		candles    = flag.Int("candles", 0, "Override number of candles to replay")
		sourceType = flag.String("source", "binance", "Candle source: binance, synthetic")
		output     = flag.String("output", "", "Write the full result as JSON to this path")
		csvPath    = flag.String("csv", "", "Write headline metrics as CSV to this path")
		persist    = flag.Bool("persist", false, "Persist the result to the database")
	)
	flag.Parse()

	ctx := context.Background()

	cfg := loadConfig(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel)

	if *symbol != "" {
		cfg.Strategy.Symbol = *symbol
	}
	if *timeframe != "" {
		cfg.Strategy.Timeframe = models.Timeframe(*timeframe)
	}
	if *candles > 0 {
		cfg.Backtest.CandleCount = *candles
	}

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.ExchangeTimeout()
	httpCfg.MaxRetries = cfg.Exchange.MaxRetries
	httpCfg.RateLimit = cfg.Exchange.RateLimit

	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, log)
	defer httpClient.Close()

	source := buildSource(cfg, httpClient, *sourceType, log)

	engine, err := backtest.NewEngine(backtest.Config{CandleCount: cfg.Backtest.CandleCount}, source, cfg.Strategy, log)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	start := time.Now()
	result, err := engine.Run(ctx)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}
	metrics.RecordBacktestRun(time.Since(start).Seconds())

	fmt.Print(backtest.GenerateConsoleReport(result))

	if *output != "" {
		if err := backtest.GenerateJSONReport(result, *output); err != nil {
			log.Fatalf("Failed to write JSON report: %v", err)
		}
		log.WithField("path", *output).Info("Wrote JSON report")
	}
	if *csvPath != "" {
		if err := backtest.GenerateCSVExport(result, *csvPath); err != nil {
			log.Fatalf("Failed to write CSV export: %v", err)
		}
		log.WithField("path", *csvPath).Info("Wrote CSV export")
	}

	if *persist || cfg.Backtest.PersistResults {
		persistResult(ctx, cfg, result, log)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			fmt.Fprintln(os.Stderr, "AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			os.Exit(1)
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load secrets: %v\n", err)
			os.Exit(1)
		}
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildSource(cfg *config.Config, httpClient *datasource.RateLimitedHTTPClient, sourceType string, log *logrus.Logger) datasource.CandleSource {
	factory := datasource.NewFactory(httpClient, cfg.Exchange.APIURL, log)

	source, err := factory.Create(datasource.SourceType(sourceType))
	if err != nil {
		log.Fatalf("Failed to create candle source: %v", err)
	}

	if cfg.Exchange.FallbackSource == "synthetic" && sourceType != "synthetic" {
		fallback, err := factory.Create(datasource.SyntheticSourceType)
		if err != nil {
			log.Fatalf("Failed to create fallback source: %v", err)
		}
		return datasource.NewFallbackSource(source, fallback, log)
	}
	return source
}

func persistResult(ctx context.Context, cfg *config.Config, result *models.BacktestResult, log *logrus.Logger) {
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	if err := repos.BacktestResult.SaveResult(ctx, result); err != nil {
		log.Fatalf("Failed to persist result: %v", err)
	}
	log.WithField("symbol", result.Symbol).Info("Persisted backtest result")
}
