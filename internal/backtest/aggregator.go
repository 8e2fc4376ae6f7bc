package backtest

import "github.com/yourusername/cci-trader/internal/models"

// profitFactorCap stands in for infinity when a run has gains and no losses
const profitFactorCap = 999

// Aggregate folds a completed trade log and its position summaries into a
// BacktestResult. The fold is order-sensitive: trades must be passed in
// execution order for the drawdown replay to be meaningful. An empty log
// yields a well-formed zero result with the capital untouched.
func Aggregate(trades []models.TradeExecution, positions []models.PositionResult, settings models.StrategySettings) models.BacktestResult {
	result := models.BacktestResult{
		Symbol:       settings.Symbol,
		Timeframe:    settings.Timeframe,
		TotalTrades:  len(trades),
		FinalCapital: settings.SeedMoney,
		Positions:    positions,
		Trades:       trades,
	}

	for _, p := range positions {
		result.TotalPositions++
		if p.Won() {
			result.WinningPositions++
		} else {
			result.LosingPositions++
		}
	}
	if result.TotalPositions > 0 {
		result.WinRate = float64(result.WinningPositions) / float64(result.TotalPositions) * 100
	}

	for _, t := range trades {
		result.TotalProfit += t.NetProfit
		result.TotalFees += t.Fee
	}
	result.FinalCapital = settings.SeedMoney + result.TotalProfit

	result.ProfitFactor = profitFactor(positions)
	result.MaxDrawdown = maxDrawdown(trades, settings.SeedMoney)

	return result
}

// profitFactor is gross profit over gross loss across closed positions. A run
// with gains and zero losses reports the cap instead of dividing by zero.
func profitFactor(positions []models.PositionResult) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, p := range positions {
		if p.TotalProfit > 0 {
			grossProfit += p.TotalProfit
		} else {
			grossLoss += -p.TotalProfit
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return profitFactorCap
		}
		return 0
	}
	return grossProfit / grossLoss
}

// maxDrawdown replays the trade log against a balance seeded with the initial
// capital and reports the largest peak-to-trough decline as a percentage of
// the peak.
func maxDrawdown(trades []models.TradeExecution, seedMoney float64) float64 {
	balance := seedMoney
	peak := seedMoney
	maxDD := 0.0
	for _, t := range trades {
		balance += t.NetProfit
		if balance > peak {
			peak = balance
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - balance) / peak * 100
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}
