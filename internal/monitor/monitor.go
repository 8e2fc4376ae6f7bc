// Package monitor scans live market data for entry signals across a set of
// symbols and fans detected signals out to notification sinks.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/config"
	"github.com/yourusername/cci-trader/internal/datasource"
	"github.com/yourusername/cci-trader/internal/indicator"
	"github.com/yourusername/cci-trader/internal/metrics"
	"github.com/yourusername/cci-trader/internal/models"
	"github.com/yourusername/cci-trader/internal/repository"
	"github.com/yourusername/cci-trader/internal/signal"
)

// rsiPeriod is the lookback used for the RSI context attached to signals
const rsiPeriod = 14

// NotificationSink receives detected signals
type NotificationSink interface {
	Notify(ctx context.Context, sig *models.MarketSignal) error
}

// LogSink writes signals to the structured log. It is the default sink when
// no external channel is configured.
type LogSink struct {
	Logger *logrus.Logger
}

// Notify logs the signal at info level
func (s *LogSink) Notify(_ context.Context, sig *models.MarketSignal) error {
	s.Logger.WithFields(logrus.Fields{
		"symbol":    sig.Symbol,
		"direction": sig.Direction,
		"price":     sig.Price,
		"cci":       sig.CCI,
		"timeframe": sig.Timeframe,
	}).Info("Entry signal detected")
	return nil
}

// Monitor periodically scans each configured symbol for fresh entry signals.
// A dedup cache keyed by symbol, timeframe, direction and candle time keeps
// overlapping scan windows from emitting the same signal twice.
type Monitor struct {
	cfg      config.MonitorConfig
	settings models.StrategySettings
	source   datasource.CandleSource
	sinks    []NotificationSink
	signals  repository.SignalRepository
	dedup    *gocache.Cache
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewMonitor creates a monitor. The signal repository may be nil when
// persistence is disabled.
func NewMonitor(cfg config.MonitorConfig, settings models.StrategySettings, source datasource.CandleSource, signals repository.SignalRepository, logger *logrus.Logger) (*Monitor, error) {
	if source == nil {
		return nil, fmt.Errorf("candle source is required")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	ttl := time.Duration(cfg.SignalTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	m := &Monitor{
		cfg:      cfg,
		settings: settings,
		source:   source,
		signals:  signals,
		dedup:    gocache.New(ttl, ttl/2),
		ttl:      ttl,
		logger:   logger,
		sinks:    []NotificationSink{&LogSink{Logger: logger}},
	}
	metrics.MonitoredSymbols.Set(float64(len(cfg.Symbols)))
	return m, nil
}

// AddSink registers an additional notification sink
func (m *Monitor) AddSink(sink NotificationSink) {
	m.sinks = append(m.sinks, sink)
}

// ScanAll scans every configured symbol once. Cancellation is honored between
// symbols so a shutdown never waits for the whole pass.
func (m *Monitor) ScanAll(ctx context.Context) error {
	start := time.Now()

	var firstErr error
	for _, symbol := range m.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.ScanSymbol(ctx, symbol); err != nil {
			m.logger.WithError(err).WithField("symbol", symbol).Error("Symbol scan failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	completed := time.Now()
	metrics.RecordScan(completed.Sub(start).Seconds(), float64(completed.Unix()))
	return firstErr
}

// ScanSymbol fetches the latest candles for one symbol and emits any fresh
// signals found in the window.
func (m *Monitor) ScanSymbol(ctx context.Context, symbol string) error {
	settings := m.settings
	settings.Symbol = symbol

	candles, err := m.source.FetchCandles(ctx, symbol, settings.Timeframe, m.cfg.CandleCount)
	if err != nil {
		metrics.RecordFetchError(m.source.Name())
		return fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if err := models.ValidateCandles(candles); err != nil {
		return fmt.Errorf("validate %s: %w", symbol, err)
	}

	samples := indicator.Samples(candles, settings.CCILength)
	if len(samples) == 0 {
		m.logger.WithFields(logrus.Fields{
			"symbol":  symbol,
			"candles": len(candles),
		}).Warn("Not enough candles for an indicator window")
		return nil
	}

	// Replay the whole window through a fresh detector. Signals from earlier
	// in the window were either emitted on a previous scan (suppressed by
	// the dedup cache) or expired past the TTL.
	detector := signal.NewDetector(settings)
	cutoff := time.Now().Add(-m.ttl)
	rsi := indicator.RSI(candles, rsiPeriod)

	for _, sample := range samples {
		direction, fired := detector.Next(sample.CCI)
		if !fired {
			continue
		}
		if time.UnixMilli(sample.Timestamp).Before(cutoff) {
			continue
		}

		sig := &models.MarketSignal{
			ID:        uuid.New(),
			Symbol:    symbol,
			Direction: direction,
			Price:     sample.Price,
			Volume:    sample.Volume,
			CCI:       sample.CCI,
			Reason:    fmt.Sprintf("CCI recovered inside %.0f after breaching %.0f (RSI %.1f)", settings.ExitThreshold, settings.EntryThreshold, rsi),
			Timeframe: settings.Timeframe,
			Timestamp: sample.Timestamp,
			CreatedAt: time.Now().UTC(),
		}
		m.emit(ctx, sig)
	}
	return nil
}

func (m *Monitor) emit(ctx context.Context, sig *models.MarketSignal) {
	key := sig.DedupKey()
	if _, seen := m.dedup.Get(key); seen {
		metrics.RecordSignalDeduped()
		return
	}
	m.dedup.SetDefault(key, struct{}{})

	metrics.RecordSignal(sig.Symbol, string(sig.Direction))

	if m.signals != nil && m.cfg.PersistSignals {
		if err := m.signals.Insert(ctx, sig); err != nil {
			m.logger.WithError(err).Warn("Failed to persist signal")
		}
	}

	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, sig); err != nil {
			m.logger.WithError(err).Warn("Notification sink failed")
		}
	}
}
