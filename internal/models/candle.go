package models

import (
	"fmt"
	"time"
)

// Timeframe represents a supported candle interval
type Timeframe string

const (
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// Valid reports whether the timeframe is one of the supported intervals
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d, Timeframe1w:
		return true
	default:
		return false
	}
}

// Duration returns the candle interval as a time.Duration
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	case Timeframe1w:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Candle represents a single OHLCV bar. Timestamp is milliseconds since epoch.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time returns the candle open time in UTC
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// TypicalPrice returns (high + low + close) / 3
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3.0
}

// IndicatorSample pairs a candle's price data with its computed CCI value.
// One sample exists per candle once the indicator window is full.
type IndicatorSample struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	CCI       float64 `json:"cci"`
}

// ValidateCandles verifies the sequence is non-empty with strictly
// increasing timestamps. Adapters must hand the engine clean data.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return ErrNoData
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			return fmt.Errorf("candle %d: timestamp %d not after previous %d: %w",
				i, candles[i].Timestamp, candles[i-1].Timestamp, ErrInvalidData)
		}
	}
	return nil
}
