package datasource

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/yourusername/cci-trader/internal/models"
)

const syntheticSourceName = "synthetic"

// SyntheticSource generates a deterministic pseudo-random walk of candles.
// It backs tests and serves as the explicit fallback when a real source is
// unavailable; the fallback substitution is always logged by the caller,
// never silent.
type SyntheticSource struct {
	seed      int64
	basePrice float64
}

// NewSyntheticSource creates a generator seeded for reproducibility
func NewSyntheticSource(seed int64, basePrice float64) *SyntheticSource {
	if basePrice <= 0 {
		basePrice = 100
	}
	return &SyntheticSource{seed: seed, basePrice: basePrice}
}

// Name returns the source name
func (s *SyntheticSource) Name() string {
	return syntheticSourceName
}

// FetchCandles generates count candles ending at the current interval
// boundary. The same seed, symbol, timeframe and count always produce the
// same series.
func (s *SyntheticSource) FetchCandles(_ context.Context, symbol string, timeframe models.Timeframe, count int) ([]models.Candle, error) {
	if count <= 0 {
		return nil, models.ErrNoData
	}

	interval := timeframe.Duration()
	if interval == 0 {
		interval = time.Hour
	}

	// Mix the symbol into the seed so different symbols walk differently.
	seed := s.seed
	for _, r := range symbol {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	end := time.Now().UTC().Truncate(interval)
	start := end.Add(-time.Duration(count) * interval)

	candles := make([]models.Candle, 0, count)
	price := s.basePrice
	for i := 0; i < count; i++ {
		drift := rng.NormFloat64() * 0.01 * price
		open := price
		close := price + drift
		high := math.Max(open, close) * (1 + rng.Float64()*0.005)
		low := math.Min(open, close) * (1 - rng.Float64()*0.005)
		candles = append(candles, models.Candle{
			Timestamp: start.Add(time.Duration(i+1) * interval).UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000 + rng.Float64()*9000,
		})
		price = close
	}
	return candles, nil
}
