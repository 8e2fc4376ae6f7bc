package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cci-trader/internal/models"
)

const hourMillis = int64(3600000)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testSettings() models.StrategySettings {
	settings := models.DefaultStrategySettings("BTCUSDT", models.Timeframe1h)
	settings.FeeRate = 0
	return settings
}

// flatCandle builds a degenerate candle where all four prices are equal
func flatCandle(ts int64, price float64) models.Candle {
	return models.Candle{
		Timestamp: ts,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    1000,
	}
}

// series builds hour-spaced flat candles from a list of closing prices
func series(prices ...float64) []models.Candle {
	candles := make([]models.Candle, len(prices))
	ts := int64(1700000000000)
	for i, price := range prices {
		candles[i] = flatCandle(ts, price)
		ts += hourMillis
	}
	return candles
}

func repeat(price float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

type stubSource struct {
	candles []models.Candle
	err     error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) FetchCandles(context.Context, string, models.Timeframe, int) ([]models.Candle, error) {
	return s.candles, s.err
}

func TestNewEngineRejectsInvalidSettings(t *testing.T) {
	settings := testSettings()
	settings.SeedMoney = -1

	_, err := NewEngine(DefaultConfig(), stubSource{}, settings, quietLogger())
	assert.ErrorIs(t, err, models.ErrInvalidSettings)
}

func TestRunSurfacesSourceFailure(t *testing.T) {
	sourceErr := errors.New("exchange unreachable")
	engine, err := NewEngine(DefaultConfig(), stubSource{err: sourceErr}, testSettings(), quietLogger())
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	assert.ErrorIs(t, err, sourceErr)
}

func TestSimulateFlatSeriesProducesNoTrades(t *testing.T) {
	settings := testSettings()
	engine, err := NewEngine(DefaultConfig(), stubSource{}, settings, quietLogger())
	require.NoError(t, err)

	// A perfectly flat series has zero mean deviation, so CCI is 0
	// everywhere and nothing ever breaches the entry band.
	result, err := engine.Simulate(series(repeat(100, 30)...))
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalTrades)
	assert.Equal(t, 0, result.TotalPositions)
	assert.Equal(t, settings.SeedMoney, result.FinalCapital)
	assert.Equal(t, 0.0, result.WinRate)
	assert.Equal(t, 0.0, result.ProfitFactor)
	assert.Equal(t, 0.0, result.MaxDrawdown)
}

func TestSimulateInsufficientCandles(t *testing.T) {
	settings := testSettings()
	engine, err := NewEngine(DefaultConfig(), stubSource{}, settings, quietLogger())
	require.NoError(t, err)

	result, err := engine.Simulate(series(repeat(100, 5)...))
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalTrades)
	assert.Equal(t, settings.SeedMoney, result.FinalCapital)
}

// dipAndRecover is a flat series with one sharp drop followed by a partial
// recovery. Against a 20-period window the drop pushes CCI far below the
// -110 entry band and the recovery sample comes back above -100, which is
// exactly one LONG signal.
func dipAndRecover(tail ...float64) []models.Candle {
	prices := append(repeat(100, 25), 90, 99)
	prices = append(prices, tail...)
	return series(prices...)
}

func TestSimulateSingleEntryHeldToEnd(t *testing.T) {
	settings := testSettings()
	engine, err := NewEngine(DefaultConfig(), stubSource{}, settings, quietLogger())
	require.NoError(t, err)

	result, err := engine.Simulate(dipAndRecover(repeat(99, 10)...))
	require.NoError(t, err)

	// One stage-0 entry, never profitable and never down enough to
	// average, liquidated at the final candle.
	require.Equal(t, 1, result.TotalPositions)
	require.Equal(t, 2, result.TotalTrades)

	entry := result.Trades[0]
	assert.Equal(t, models.TradeStageEntry, entry.Type)
	assert.Equal(t, 0, entry.StageIndex)
	assert.Equal(t, settings.StartAmount, entry.Amount)
	assert.InDelta(t, 99.0, entry.EntryPrice, 1e-9)

	exit := result.Trades[1]
	assert.Equal(t, models.TradeForceClose, exit.Type)

	position := result.Positions[0]
	assert.Equal(t, models.PositionLong, position.Type)
	assert.Equal(t, 0, position.MaxStage)
	assert.InDelta(t, 0.0, position.TotalProfit, 1e-9)
	assert.InDelta(t, settings.SeedMoney, result.FinalCapital, 1e-9)
}

func TestSimulateProfitExit(t *testing.T) {
	settings := testSettings()
	engine, err := NewEngine(DefaultConfig(), stubSource{}, settings, quietLogger())
	require.NoError(t, err)

	// Entry at 99, next candle at 103 is a 4.04% gain, above the 3% target.
	result, err := engine.Simulate(dipAndRecover(103))
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalPositions)
	require.Equal(t, 2, result.TotalTrades)

	position := result.Positions[0]
	assert.Equal(t, models.TradeProfitExit, position.ExitReason)
	assert.True(t, position.Won())

	expectedProfit := settings.StartAmount / 99.0 * (103.0 - 99.0)
	assert.InDelta(t, expectedProfit, result.TotalProfit, 1e-9)
	assert.InDelta(t, settings.SeedMoney+expectedProfit, result.FinalCapital, 1e-9)
	assert.Equal(t, 100.0, result.WinRate)
}

func TestSimulateIsDeterministic(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), stubSource{}, testSettings(), quietLogger())
	require.NoError(t, err)

	candles := dipAndRecover(repeat(99, 10)...)
	first, err := engine.Simulate(candles)
	require.NoError(t, err)
	second, err := engine.Simulate(candles)
	require.NoError(t, err)

	assert.Equal(t, first.TotalTrades, second.TotalTrades)
	assert.Equal(t, first.TotalProfit, second.TotalProfit)
	assert.Equal(t, first.FinalCapital, second.FinalCapital)
}

func TestSimulateRejectsUnorderedCandles(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), stubSource{}, testSettings(), quietLogger())
	require.NoError(t, err)

	candles := series(repeat(100, 30)...)
	candles[3], candles[4] = candles[4], candles[3]

	_, err = engine.Simulate(candles)
	assert.ErrorIs(t, err, models.ErrInvalidData)
}

func TestGenerateJSONReportRoundTrip(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), stubSource{}, testSettings(), quietLogger())
	require.NoError(t, err)

	result, err := engine.Simulate(dipAndRecover(103))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reports", "result.json")
	require.NoError(t, GenerateJSONReport(result, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.BacktestResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, result.Symbol, decoded.Symbol)
	assert.Equal(t, result.TotalTrades, decoded.TotalTrades)
	assert.InDelta(t, result.FinalCapital, decoded.FinalCapital, 1e-9)
}

func TestRunEndToEnd(t *testing.T) {
	settings := testSettings()
	source := stubSource{candles: dipAndRecover(103)}
	engine, err := NewEngine(Config{CandleCount: 100}, source, settings, quietLogger())
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalPositions)
	assert.Equal(t, "BTCUSDT", result.Symbol)
	assert.Equal(t, models.Timeframe1h, result.Timeframe)
}
