package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSIInsufficientData(t *testing.T) {
	assert.Equal(t, 50.0, RSI(flatCandles(10, 100), 14))
	assert.Equal(t, 50.0, RSI(nil, 14))
}

func TestRSIAllGains(t *testing.T) {
	candles := flatCandles(30, 100)
	for i := range candles {
		candles[i].Close = 100 + float64(i)
	}
	assert.Equal(t, 100.0, RSI(candles, 14))
}

func TestRSIAllLosses(t *testing.T) {
	candles := flatCandles(30, 100)
	for i := range candles {
		candles[i].Close = 100 - float64(i)
	}
	assert.InDelta(t, 0.0, RSI(candles, 14), 1e-9)
}

func TestRSIFlatSeries(t *testing.T) {
	// No gains and no losses: zero average loss maps to 100.
	assert.Equal(t, 100.0, RSI(flatCandles(30, 100), 14))
}

func TestRSIBounded(t *testing.T) {
	candles := flatCandles(60, 100)
	for i := range candles {
		candles[i].Close = 100 + float64((i*31)%13) - 6
	}
	rsi := RSI(candles, 14)
	assert.GreaterOrEqual(t, rsi, 0.0)
	assert.LessOrEqual(t, rsi, 100.0)
}
