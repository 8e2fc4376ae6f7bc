// Package indicator provides pure, deterministic technical indicator
// computations over candle sequences.
package indicator

import (
	"math"

	"github.com/yourusername/cci-trader/internal/models"
)

// cciScale is the canonical Commodity Channel Index normalization factor
const cciScale = 0.015

// CCI computes the Commodity Channel Index over a sliding window of the given
// period. The result has one value per candle starting at index period-1, so
// its length is len(candles)-period+1. Too little data is a normal outcome
// and yields an empty slice, not an error.
func CCI(candles []models.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period {
		return nil
	}

	typical := make([]float64, len(candles))
	for i, c := range candles {
		typical[i] = c.TypicalPrice()
	}

	out := make([]float64, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		window := typical[i-period+1 : i+1]

		sma := 0.0
		for _, v := range window {
			sma += v
		}
		sma /= float64(period)

		meanDev := 0.0
		for _, v := range window {
			meanDev += math.Abs(v - sma)
		}
		meanDev /= float64(period)

		if meanDev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (typical[i]-sma)/(cciScale*meanDev))
	}
	return out
}

// Samples pairs each CCI value with its candle's closing price and volume.
// Returns nil when the window never fills.
func Samples(candles []models.Candle, period int) []models.IndicatorSample {
	values := CCI(candles, period)
	if len(values) == 0 {
		return nil
	}
	samples := make([]models.IndicatorSample, len(values))
	for i, v := range values {
		c := candles[i+period-1]
		samples[i] = models.IndicatorSample{
			Timestamp: c.Timestamp,
			Price:     c.Close,
			Volume:    c.Volume,
			CCI:       v,
		}
	}
	return samples
}
