// Package position implements the staged-averaging strategy state machine.
// It owns the lifecycle of at most one open position per run and emits the
// append-only trade log the aggregator folds.
package position

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cci-trader/internal/models"
)

// Manager drives one position through the
// NO_POSITION -> STAGE_0..STAGE_4 -> CLOSED lifecycle.
type Manager struct {
	settings models.StrategySettings
	policy   StagePolicy
	logger   *logrus.Logger

	position  *models.Position
	openLegs  []models.TradeExecution
	trades    []models.TradeExecution
	results   []models.PositionResult
}

// NewManager creates a manager for validated settings
func NewManager(settings models.StrategySettings, logger *logrus.Logger) (*Manager, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	policy, err := PolicyFor(settings.StagePolicy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		settings: settings,
		policy:   policy,
		logger:   logger,
	}, nil
}

// HasOpenPosition reports whether a position is currently open
func (m *Manager) HasOpenPosition() bool {
	return m.position != nil
}

// Position returns the currently open position, or nil
func (m *Manager) Position() *models.Position {
	return m.position
}

// Trades returns the full append-only trade log of the run
func (m *Manager) Trades() []models.TradeExecution {
	return m.trades
}

// Results returns the closed-position summaries of the run
func (m *Manager) Results() []models.PositionResult {
	return m.results
}

// Open opens a new position at the sample price with the stage-0 capital.
// Opening while a position exists is a state machine violation.
func (m *Manager) Open(direction models.Direction, sample models.IndicatorSample) error {
	if m.position != nil {
		return models.ErrPositionOpen
	}

	positionType := models.PositionLong
	if direction == models.DirectionShort {
		positionType = models.PositionShort
	}

	m.position = models.NewPosition(positionType, m.settings.Symbol, sample.Price, m.settings.StartAmount, sample.Timestamp, sample.CCI)
	m.recordEntry(0, sample)

	m.logger.WithFields(logrus.Fields{
		"symbol": m.settings.Symbol,
		"type":   positionType,
		"price":  sample.Price,
		"amount": m.settings.StartAmount,
	}).Debug("Opened position")
	return nil
}

// Evaluate applies the per-step rules to the open position in priority order:
// profit-exit / half-sell, averaging, terminal-stage stop-loss. A no-op when
// no position is open.
func (m *Manager) Evaluate(sample models.IndicatorSample) {
	if m.position == nil {
		return
	}
	if m.position.Type == models.PositionShort {
		m.evaluateShort(sample)
		return
	}
	m.evaluateLong(sample)
}

// ForceClose closes any still-open position at the sample price. Called when
// the candle sequence is exhausted so aggregate statistics include every
// entry that was made.
func (m *Manager) ForceClose(sample models.IndicatorSample) {
	if m.position == nil {
		return
	}
	m.closePosition(models.TradeForceClose, sample)
}

func (m *Manager) evaluateLong(sample models.IndicatorSample) {
	p := m.position
	profitRate := p.ProfitRate(sample.Price)

	if p.StageIndex == 0 {
		if profitRate >= m.settings.ProfitTarget {
			m.closePosition(models.TradeProfitExit, sample)
			return
		}
	} else {
		if profitRate >= m.settings.ProfitTarget {
			m.closePosition(models.TradeFullExit, sample)
			return
		}
		if profitRate >= m.settings.HalfSellProfitRate {
			m.halfSell(sample)
			return
		}
	}

	if p.StageIndex < models.MaxStageIndex {
		nextStage := p.StageIndex + 1
		lossRate := m.averagingLoss(sample.Price)
		if lossRate >= m.settings.StageLoss(nextStage) {
			amount := m.policy(p, nextStage, m.settings)
			p.AddStage(sample.Price, amount, sample.Timestamp)
			m.recordEntry(p.StageIndex, sample)
			m.logger.WithFields(logrus.Fields{
				"symbol":    m.settings.Symbol,
				"stage":     p.StageIndex,
				"loss_rate": lossRate,
				"amount":    amount,
				"avg_price": p.AveragePrice(),
			}).Debug("Averaged into position")
			return
		}
	}

	if p.StageIndex >= models.MaxStageIndex && -profitRate >= m.settings.StopLossPercent {
		m.closePosition(models.TradeStopLoss, sample)
	}
}

// evaluateShort applies the SHORT bracket: profit target or stop-loss only,
// no staged entries and no half-sell.
func (m *Manager) evaluateShort(sample models.IndicatorSample) {
	profitRate := m.position.ProfitRate(sample.Price)
	if profitRate >= m.settings.ProfitTarget {
		m.closePosition(models.TradeProfitExit, sample)
		return
	}
	if -profitRate >= m.settings.StopLossPercent {
		m.closePosition(models.TradeStopLoss, sample)
	}
}

// averagingLoss returns the loss percentage that drives the next averaging
// decision: from the first entry price while at stage 0, from the average
// price afterwards.
func (m *Manager) averagingLoss(price float64) float64 {
	p := m.position
	if p.StageIndex == 0 {
		first := p.FirstEntryPrice()
		if first == 0 {
			return 0
		}
		return (first - price) / first * 100
	}
	return -p.ProfitRate(price)
}

func (m *Manager) recordEntry(stageIndex int, sample models.IndicatorSample) {
	p := m.position
	stage := p.Stages[len(p.Stages)-1]
	fee := stage.Amount * m.settings.FeeRate / 100

	trade := models.TradeExecution{
		ID:         uuid.New(),
		PositionID: p.ID,
		Type:       models.TradeStageEntry,
		Direction:  p.Type,
		Symbol:     p.Symbol,
		StageIndex: stageIndex,
		EntryPrice: stage.EntryPrice,
		Amount:     stage.Amount,
		Fee:        fee,
		NetProfit:  -fee,
		Timestamp:  sample.Timestamp,
		EntryCCI:   sample.CCI,
	}
	m.appendTrade(trade)
}

func (m *Manager) halfSell(sample models.IndicatorSample) {
	p := m.position
	avg := p.AveragePrice()
	coins, amount := p.ReduceHalf()

	gross := coins * (sample.Price - avg)
	proceeds := coins * sample.Price
	fee := proceeds * m.settings.FeeRate / 100

	trade := models.TradeExecution{
		ID:          uuid.New(),
		PositionID:  p.ID,
		Type:        models.TradeHalfSell,
		Direction:   p.Type,
		Symbol:      p.Symbol,
		StageIndex:  p.StageIndex,
		EntryPrice:  avg,
		ExitPrice:   sample.Price,
		Amount:      amount,
		Fee:         fee,
		GrossProfit: gross,
		NetProfit:   gross - fee,
		Timestamp:   sample.Timestamp,
		EntryCCI:    p.EntryCCI,
		ExitCCI:     sample.CCI,
	}
	m.appendTrade(trade)

	m.logger.WithFields(logrus.Fields{
		"symbol":     m.settings.Symbol,
		"sold_coins": coins,
		"stage":      p.StageIndex,
		"net_profit": trade.NetProfit,
	}).Debug("Half-sold position")
}

func (m *Manager) closePosition(exitType models.TradeType, sample models.IndicatorSample) {
	p := m.position
	avg := p.AveragePrice()
	coins := p.TotalCoins

	gross := coins * (sample.Price - avg)
	if p.Type == models.PositionShort {
		gross = coins * (avg - sample.Price)
	}
	proceeds := coins * sample.Price
	fee := proceeds * m.settings.FeeRate / 100

	trade := models.TradeExecution{
		ID:          uuid.New(),
		PositionID:  p.ID,
		Type:        exitType,
		Direction:   p.Type,
		Symbol:      p.Symbol,
		StageIndex:  p.StageIndex,
		EntryPrice:  avg,
		ExitPrice:   sample.Price,
		Amount:      p.TotalAmount,
		Fee:         fee,
		GrossProfit: gross,
		NetProfit:   gross - fee,
		Timestamp:   sample.Timestamp,
		EntryCCI:    p.EntryCCI,
		ExitCCI:     sample.CCI,
	}
	m.appendTrade(trade)

	totalProfit := 0.0
	totalFees := 0.0
	for _, leg := range m.openLegs {
		totalProfit += leg.NetProfit
		totalFees += leg.Fee
	}

	result := models.PositionResult{
		ID:          p.ID,
		Type:        p.Type,
		Symbol:      p.Symbol,
		MaxStage:    p.MaxStage,
		TotalProfit: totalProfit,
		TotalFees:   totalFees,
		ExitReason:  exitType,
		StartTime:   p.OpenedAt,
		EndTime:     sample.Timestamp,
		Duration:    p.Duration(sample.Timestamp),
		Trades:      m.openLegs,
	}
	m.results = append(m.results, result)

	m.logger.WithFields(logrus.Fields{
		"symbol":     m.settings.Symbol,
		"exit":       exitType,
		"max_stage":  p.MaxStage,
		"net_profit": totalProfit,
	}).Debug("Closed position")

	m.position = nil
	m.openLegs = nil
}

func (m *Manager) appendTrade(trade models.TradeExecution) {
	m.trades = append(m.trades, trade)
	m.openLegs = append(m.openLegs, trade)
}
