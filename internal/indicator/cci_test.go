package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/cci-trader/internal/models"
)

func flatCandles(n int, price float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: int64(i) * 60000,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    100,
		}
	}
	return candles
}

func TestCCIInsufficientData(t *testing.T) {
	for _, period := range []int{1, 5, 20, 100} {
		candles := flatCandles(period-1, 100)
		assert.Empty(t, CCI(candles, period), "period %d", period)
	}
}

func TestCCIZeroDeviation(t *testing.T) {
	candles := flatCandles(50, 100)
	values := CCI(candles, 20)
	require.Len(t, values, 31)
	for i, v := range values {
		assert.Zero(t, v, "index %d", i)
		assert.False(t, math.IsNaN(v))
	}
}

func TestCCIOutputLength(t *testing.T) {
	candles := flatCandles(60, 100)
	for i := range candles {
		candles[i].Close = 100 + float64(i%7)
		candles[i].High = candles[i].Close + 1
		candles[i].Low = candles[i].Close - 1
	}
	values := CCI(candles, 20)
	assert.Len(t, values, len(candles)-20+1)
}

func TestCCIDeterministic(t *testing.T) {
	candles := flatCandles(40, 100)
	for i := range candles {
		candles[i].High = 100 + float64(i)
		candles[i].Low = 98 - float64(i%3)
		candles[i].Close = 99 + float64(i%5)
	}
	first := CCI(candles, 14)
	second := CCI(candles, 14)
	assert.Equal(t, first, second)
}

func TestCCIKnownWindow(t *testing.T) {
	// Last typical price above the window mean produces a positive CCI.
	candles := flatCandles(20, 100)
	last := &candles[19]
	last.High = 110
	last.Low = 110
	last.Close = 110

	values := CCI(candles, 20)
	require.Len(t, values, 1)

	// 19 typical prices at 100, one at 110: sma=100.5, meanDev=0.95.
	expected := (110.0 - 100.5) / (0.015 * 0.95)
	assert.InDelta(t, expected, values[0], 1e-9)
}

func TestSamplesAlignment(t *testing.T) {
	candles := flatCandles(25, 100)
	samples := Samples(candles, 20)
	require.Len(t, samples, 6)
	assert.Equal(t, candles[19].Timestamp, samples[0].Timestamp)
	assert.Equal(t, candles[24].Timestamp, samples[5].Timestamp)
	assert.Equal(t, candles[24].Close, samples[5].Price)
}

func TestSamplesInsufficientData(t *testing.T) {
	assert.Nil(t, Samples(flatCandles(10, 100), 20))
}
