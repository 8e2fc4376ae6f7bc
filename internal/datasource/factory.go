package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/models"
)

// SourceType represents the type of candle source
type SourceType string

const (
	// BinanceSourceType is the live exchange REST source
	BinanceSourceType SourceType = "binance"
	// SyntheticSourceType is the deterministic generator
	SyntheticSourceType SourceType = "synthetic"
)

// Factory builds CandleSource implementations
type Factory struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	logger     *logrus.Logger
}

// NewFactory creates a candle source factory
func NewFactory(httpClient *RateLimitedHTTPClient, baseURL string, logger *logrus.Logger) *Factory {
	return &Factory{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Create creates a candle source of the given type
func (f *Factory) Create(sourceType SourceType) (CandleSource, error) {
	switch sourceType {
	case BinanceSourceType:
		if f.httpClient == nil {
			return nil, fmt.Errorf("HTTP client is required for the %s source", sourceType)
		}
		return NewBinanceClient(f.httpClient, f.baseURL, f.logger), nil
	case SyntheticSourceType:
		return NewSyntheticSource(time.Now().UnixNano(), 100), nil
	default:
		return nil, fmt.Errorf("unknown candle source type: %s", sourceType)
	}
}

// FallbackSource wraps a primary source with an explicit fallback. When the
// primary fails or returns no data the fallback is consulted and the
// substitution is logged; a fallback failure surfaces the primary error.
type FallbackSource struct {
	primary  CandleSource
	fallback CandleSource
	logger   *logrus.Logger
}

// NewFallbackSource creates a source with explicit fallback behavior
func NewFallbackSource(primary, fallback CandleSource, logger *logrus.Logger) *FallbackSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &FallbackSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Name returns the composite source name
func (f *FallbackSource) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

// FetchCandles tries the primary source and falls back explicitly
func (f *FallbackSource) FetchCandles(ctx context.Context, symbol string, timeframe models.Timeframe, count int) ([]models.Candle, error) {
	candles, err := f.primary.FetchCandles(ctx, symbol, timeframe, count)
	if err == nil {
		return candles, nil
	}

	f.logger.WithError(err).WithFields(logrus.Fields{
		"primary":  f.primary.Name(),
		"fallback": f.fallback.Name(),
		"symbol":   symbol,
	}).Warn("Primary candle source failed, substituting fallback data")

	fallbackCandles, fallbackErr := f.fallback.FetchCandles(ctx, symbol, timeframe, count)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary source failed (%v), fallback failed too: %w", err, fallbackErr)
	}
	return fallbackCandles, nil
}
