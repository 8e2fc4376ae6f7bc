package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/cci-trader/internal/models"
)

func exitTrade(netProfit, fee float64) models.TradeExecution {
	return models.TradeExecution{
		Type:      models.TradeProfitExit,
		NetProfit: netProfit,
		Fee:       fee,
	}
}

func closedPosition(totalProfit float64) models.PositionResult {
	return models.PositionResult{TotalProfit: totalProfit}
}

func TestAggregateEmptyRun(t *testing.T) {
	settings := testSettings()

	result := Aggregate(nil, nil, settings)

	assert.Equal(t, 0, result.TotalTrades)
	assert.Equal(t, 0, result.TotalPositions)
	assert.Equal(t, 0.0, result.WinRate)
	assert.Equal(t, 0.0, result.ProfitFactor)
	assert.Equal(t, 0.0, result.MaxDrawdown)
	assert.Equal(t, settings.SeedMoney, result.FinalCapital)
	assert.Equal(t, "BTCUSDT", result.Symbol)
}

func TestAggregateWinRateAndCounts(t *testing.T) {
	positions := []models.PositionResult{
		closedPosition(50),
		closedPosition(-20),
		closedPosition(30),
		closedPosition(0), // break-even counts as a loss
	}

	result := Aggregate(nil, positions, testSettings())

	assert.Equal(t, 4, result.TotalPositions)
	assert.Equal(t, 2, result.WinningPositions)
	assert.Equal(t, 2, result.LosingPositions)
	assert.InDelta(t, 50.0, result.WinRate, 1e-9)
}

func TestAggregateProfitAndFees(t *testing.T) {
	settings := testSettings()
	trades := []models.TradeExecution{
		exitTrade(100, 2),
		exitTrade(-40, 1.5),
	}

	result := Aggregate(trades, nil, settings)

	assert.InDelta(t, 60.0, result.TotalProfit, 1e-9)
	assert.InDelta(t, 3.5, result.TotalFees, 1e-9)
	assert.InDelta(t, settings.SeedMoney+60, result.FinalCapital, 1e-9)
}

func TestProfitFactor(t *testing.T) {
	tests := []struct {
		name      string
		positions []models.PositionResult
		want      float64
	}{
		{"no positions", nil, 0},
		{"only losses", []models.PositionResult{closedPosition(-30)}, 0},
		{"only wins hits cap", []models.PositionResult{closedPosition(30)}, 999},
		{"mixed", []models.PositionResult{closedPosition(60), closedPosition(-20)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, profitFactor(tt.positions), 1e-9)
		})
	}
}

func TestMaxDrawdownReplay(t *testing.T) {
	// Seed 10000: 10000 -> 11000 -> 8800 -> 9800. Peak is 11000 and the
	// trough is 8800, a 20% decline.
	trades := []models.TradeExecution{
		exitTrade(1000, 0),
		exitTrade(-2200, 0),
		exitTrade(1000, 0),
	}

	result := Aggregate(trades, nil, testSettings())
	assert.InDelta(t, 20.0, result.MaxDrawdown, 1e-9)
}

func TestMaxDrawdownIsOrderSensitive(t *testing.T) {
	up := exitTrade(1000, 0)
	down := exitTrade(-2200, 0)

	lossFirst := Aggregate([]models.TradeExecution{down, up, up}, nil, testSettings())
	lossLast := Aggregate([]models.TradeExecution{up, up, down}, nil, testSettings())

	// Same trades, same net profit, different drawdown: the early loss
	// cuts from a lower peak so its percentage decline is larger.
	assert.InDelta(t, lossFirst.TotalProfit, lossLast.TotalProfit, 1e-9)
	assert.Greater(t, lossFirst.MaxDrawdown, lossLast.MaxDrawdown)
}

func TestMaxDrawdownNeverRecovers(t *testing.T) {
	trades := []models.TradeExecution{
		exitTrade(-5000, 0),
		exitTrade(-4000, 0),
	}

	result := Aggregate(trades, nil, testSettings())
	assert.InDelta(t, 90.0, result.MaxDrawdown, 1e-9)
}
