// Package main provides the entry point for the live signal monitor.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/cci-trader/internal/config"
	"github.com/yourusername/cci-trader/internal/database"
	"github.com/yourusername/cci-trader/internal/datasource"
	"github.com/yourusername/cci-trader/internal/logger"
	"github.com/yourusername/cci-trader/internal/metrics"
	"github.com/yourusername/cci-trader/internal/models"
	"github.com/yourusername/cci-trader/internal/monitor"
	"github.com/yourusername/cci-trader/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	runOnce    bool
	appLogger  *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single scan and exit")
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch markets for CCI breakout entry signals",
	Long:  `Periodically scans the configured symbols, computes the CCI series and emits an entry signal whenever the indicator recovers from beyond the entry band.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			if err := config.LoadSecretsFromAWS(cfg, os.Getenv("AWS_REGION"), os.Getenv("AWS_SECRET_NAME")); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLogger = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("monitor %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.ExchangeTimeout()
	httpCfg.MaxRetries = cfg.Exchange.MaxRetries
	httpCfg.RateLimit = cfg.Exchange.RateLimit

	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLogger)
	defer httpClient.Close()

	source := buildSource(httpClient)

	var signalRepo repository.SignalRepository
	if cfg.Monitor.PersistSignals {
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		signalRepo = repos.Signal
	}

	mon, err := monitor.NewMonitor(cfg.Monitor, cfg.Strategy, source, signalRepo, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	if runOnce {
		return mon.ScanAll(ctx)
	}

	if cfg.Metrics.Enabled {
		startMetricsServer()
	}

	scheduler := monitor.NewScheduler(mon, appLogger)
	if err := scheduler.ScheduleScans(cfg.Monitor.Schedule); err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	appLogger.WithFields(logrus.Fields{
		"symbols":  cfg.Monitor.Symbols,
		"schedule": cfg.Monitor.Schedule,
		"next_run": scheduler.NextRun(),
	}).Info("Monitor running")

	// Kick off an immediate scan so the first signal does not wait for the
	// schedule.
	if err := mon.ScanAll(ctx); err != nil {
		appLogger.WithError(err).Warn("Initial scan finished with errors")
	}

	if cfg.Monitor.StreamingEnabled {
		startStreams(ctx, mon)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Shutting down")
	cancel()
	return scheduler.Stop()
}

func buildSource(httpClient *datasource.RateLimitedHTTPClient) datasource.CandleSource {
	factory := datasource.NewFactory(httpClient, cfg.Exchange.APIURL, appLogger)

	source, err := factory.Create(datasource.BinanceSourceType)
	if err != nil {
		appLogger.Fatalf("Failed to create candle source: %v", err)
	}

	if cfg.Exchange.FallbackSource == "synthetic" {
		fallback, err := factory.Create(datasource.SyntheticSourceType)
		if err != nil {
			appLogger.Fatalf("Failed to create fallback source: %v", err)
		}
		return datasource.NewFallbackSource(source, fallback, appLogger)
	}
	return source
}

// startStreams subscribes to live kline updates and rescans a symbol as soon
// as one of its candles closes, instead of waiting for the next cron tick.
func startStreams(ctx context.Context, mon *monitor.Monitor) {
	for _, symbol := range cfg.Monitor.Symbols {
		stream := datasource.NewStreamClient(cfg.Exchange.StreamURL, symbol, cfg.Strategy.Timeframe,
			func(symbol string, _ models.Timeframe, _ models.Candle) {
				scanCtx, cancel := context.WithTimeout(ctx, time.Minute)
				defer cancel()
				if err := mon.ScanSymbol(scanCtx, symbol); err != nil {
					appLogger.WithError(err).WithField("symbol", symbol).Warn("Stream-triggered scan failed")
				}
			}, appLogger)

		go func(symbol string) {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				appLogger.WithError(err).WithField("symbol", symbol).Error("Kline stream terminated")
			}
		}(symbol)
	}
}

func startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.WithField("addr", server.Addr).Info("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Error("Metrics server failed")
		}
	}()
}
