// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BacktestRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cci_trader",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs executed",
	})
	MonitorScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cci_trader",
		Name:      "monitor_scans_total",
		Help:      "Total number of monitoring scans across all symbols",
	})
	SignalsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cci_trader",
		Name:      "signals_emitted_total",
		Help:      "Total number of entry signals emitted",
	}, []string{"symbol", "direction"})
	SignalsDedupedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cci_trader",
		Name:      "signals_deduped_total",
		Help:      "Total number of signals suppressed by the dedup cache",
	})
	CandleFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cci_trader",
		Name:      "candle_fetch_errors_total",
		Help:      "Total number of failed candle fetches",
	}, []string{"source"})
)

// Gauge metrics
var (
	MonitoredSymbols = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cci_trader",
		Name:      "monitored_symbols",
		Help:      "Number of symbols the monitor is watching",
	})
	LastScanTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cci_trader",
		Name:      "last_scan_timestamp_seconds",
		Help:      "Unix time of the last completed monitoring scan",
	})
)

// Histogram metrics
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cci_trader",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cci_trader",
		Name:      "scan_duration_seconds",
		Help:      "Duration of full monitoring scans in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(MonitorScansTotal)
		registry.MustRegister(SignalsEmittedTotal)
		registry.MustRegister(SignalsDedupedTotal)
		registry.MustRegister(CandleFetchErrorsTotal)

		registry.MustRegister(MonitoredSymbols)
		registry.MustRegister(LastScanTimestamp)

		registry.MustRegister(BacktestDuration)
		registry.MustRegister(ScanDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBacktestRun records a completed backtest and its duration.
func RecordBacktestRun(durationSeconds float64) {
	BacktestRunsTotal.Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordScan records a completed monitoring scan and its duration.
func RecordScan(durationSeconds float64, completedAtUnix float64) {
	MonitorScansTotal.Inc()
	ScanDuration.Observe(durationSeconds)
	LastScanTimestamp.Set(completedAtUnix)
}

// RecordSignal records an emitted signal.
func RecordSignal(symbol, direction string) {
	SignalsEmittedTotal.WithLabelValues(symbol, direction).Inc()
}

// RecordSignalDeduped records a signal suppressed by the dedup cache.
func RecordSignalDeduped() {
	SignalsDedupedTotal.Inc()
}

// RecordFetchError records a failed candle fetch.
func RecordFetchError(source string) {
	CandleFetchErrorsTotal.WithLabelValues(source).Inc()
}
