// Package backtest replays historical candles through the indicator, signal
// and position layers and aggregates the resulting trade log.
package backtest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/datasource"
	"github.com/yourusername/cci-trader/internal/indicator"
	"github.com/yourusername/cci-trader/internal/models"
	"github.com/yourusername/cci-trader/internal/position"
	"github.com/yourusername/cci-trader/internal/signal"
)

// Config holds run parameters beyond the strategy settings
type Config struct {
	CandleCount int
}

// DefaultConfig returns recommended run parameters
func DefaultConfig() Config {
	return Config{CandleCount: 500}
}

// Engine orchestrates one backtest run for a single symbol and timeframe
type Engine struct {
	config   Config
	source   datasource.CandleSource
	settings models.StrategySettings
	logger   *logrus.Logger
}

// NewEngine creates a backtesting engine. Settings are validated up front so
// a run never starts with an inconsistent parameter set.
func NewEngine(cfg Config, source datasource.CandleSource, settings models.StrategySettings, logger *logrus.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("candle source is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.CandleCount <= 0 {
		cfg.CandleCount = DefaultConfig().CandleCount
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		config:   cfg,
		source:   source,
		settings: settings,
		logger:   logger,
	}, nil
}

// Run fetches candles from the source and replays them. Source failures are
// surfaced, never papered over with an empty result.
func (e *Engine) Run(ctx context.Context) (*models.BacktestResult, error) {
	e.logger.WithFields(logrus.Fields{
		"symbol":    e.settings.Symbol,
		"timeframe": e.settings.Timeframe,
		"source":    e.source.Name(),
		"candles":   e.config.CandleCount,
	}).Info("Starting backtest run")

	candles, err := e.source.FetchCandles(ctx, e.settings.Symbol, e.settings.Timeframe, e.config.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}

	return e.Simulate(candles)
}

// Simulate replays an already-loaded candle series. The same series and
// settings always produce the same result.
func (e *Engine) Simulate(candles []models.Candle) (*models.BacktestResult, error) {
	if err := models.ValidateCandles(candles); err != nil {
		return nil, err
	}

	manager, err := position.NewManager(e.settings, e.logger)
	if err != nil {
		return nil, err
	}
	detector := signal.NewDetector(e.settings)

	samples := indicator.Samples(candles, e.settings.CCILength)
	if len(samples) == 0 {
		// Too few candles for one indicator window. A well-formed zero
		// result, not an error.
		e.logger.WithFields(logrus.Fields{
			"candles": len(candles),
			"period":  e.settings.CCILength,
		}).Warn("Not enough candles for an indicator window")
		result := Aggregate(nil, nil, e.settings)
		return &result, nil
	}

	for _, sample := range samples {
		direction, fired := detector.Next(sample.CCI)
		if manager.HasOpenPosition() {
			manager.Evaluate(sample)
			continue
		}
		if fired {
			if err := manager.Open(direction, sample); err != nil {
				return nil, err
			}
		}
	}

	// Liquidate whatever is still open at the final candle so every entry
	// shows up in the aggregate statistics.
	manager.ForceClose(samples[len(samples)-1])

	result := Aggregate(manager.Trades(), manager.Results(), e.settings)

	e.logger.WithFields(logrus.Fields{
		"symbol":        e.settings.Symbol,
		"positions":     result.TotalPositions,
		"trades":        result.TotalTrades,
		"total_profit":  result.TotalProfit,
		"final_capital": result.FinalCapital,
	}).Info("Backtest run complete")

	return &result, nil
}
