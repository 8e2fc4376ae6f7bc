package indicator

import "github.com/yourusername/cci-trader/internal/models"

// rsiNeutral is returned when there is not enough history to compute RSI
const rsiNeutral = 50.0

// RSI computes the Relative Strength Index of closing prices using Wilder's
// smoothing. With fewer than period+1 candles the neutral value 50.0 is
// returned; when the average loss is zero the result is exactly 100.0.
func RSI(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return rsiNeutral
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remaining candles
	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
