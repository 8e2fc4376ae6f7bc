package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/cci-trader/internal/models"
)

// CandleSource defines the interface for fetching OHLCV candles from a market
// data provider. Implementations must return candles in strictly ascending
// timestamp order, deduplicated. An empty response is reported as
// models.ErrNoData so callers can distinguish "we couldn't check the market"
// from "market is flat, no signal".
type CandleSource interface {
	// FetchCandles retrieves up to count candles for the symbol/timeframe
	FetchCandles(ctx context.Context, symbol string, timeframe models.Timeframe, count int) ([]models.Candle, error)

	// Name returns the name of the source
	Name() string
}

// SourceError represents errors from candle source operations
type SourceError struct {
	Source  string // source name
	Code    string // error code (e.g. "rate_limit_exceeded")
	Message string
	Err     error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNetworkError      = errors.New("network error")
	ErrServerError       = errors.New("server error")
)

// NewSourceError creates a new candle source error
func NewSourceError(source, code, message string, err error) *SourceError {
	return &SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
