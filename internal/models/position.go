package models

import (
	"time"

	"github.com/google/uuid"
)

// PositionType represents the direction of a position
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
)

// MaxStageIndex is the highest averaging stage (stage indices are 0-based)
const MaxStageIndex = 4

// Stage is a single capital entry into a position
type Stage struct {
	EntryPrice float64 `json:"entry_price"`
	Amount     float64 `json:"amount"`
	Coins      float64 `json:"coins"`
	Timestamp  int64   `json:"timestamp"`
}

// Position is the mutable aggregate under simulation. At most one Position is
// open at a time during a run; it becomes a PositionResult on full close.
type Position struct {
	ID          uuid.UUID    `json:"id"`
	Type        PositionType `json:"type"`
	Symbol      string       `json:"symbol"`
	Stages      []Stage      `json:"stages"`
	StageIndex  int          `json:"stage_index"`
	MaxStage    int          `json:"max_stage"`
	TotalAmount float64      `json:"total_amount"`
	TotalCoins  float64      `json:"total_coins"`
	OpenedAt    int64        `json:"opened_at"`
	EntryCCI    float64      `json:"entry_cci"`
}

// NewPosition opens a position with its stage-0 entry
func NewPosition(positionType PositionType, symbol string, price, amount float64, timestamp int64, entryCCI float64) *Position {
	p := &Position{
		ID:       uuid.New(),
		Type:     positionType,
		Symbol:   symbol,
		OpenedAt: timestamp,
		EntryCCI: entryCCI,
	}
	p.AddStage(price, amount, timestamp)
	return p
}

// AddStage appends a capital entry and recomputes the aggregate totals.
// The effective stage index advances by one; after a half-sell it may be
// lower than the number of entries made.
func (p *Position) AddStage(price, amount float64, timestamp int64) {
	stage := Stage{
		EntryPrice: price,
		Amount:     amount,
		Coins:      amount / price,
		Timestamp:  timestamp,
	}
	if len(p.Stages) > 0 {
		p.StageIndex++
	}
	p.Stages = append(p.Stages, stage)
	if p.StageIndex > p.MaxStage {
		p.MaxStage = p.StageIndex
	}
	p.recompute()
}

// ReduceHalf liquidates half of the position's coins and capital. Every stage
// is scaled down so the totals stay derivable from the stage list; the average
// price is unchanged and the effective stage index drops by one to reflect the
// reduced risk. Returns the coins and capital removed.
func (p *Position) ReduceHalf() (coins, amount float64) {
	coins = p.TotalCoins / 2
	amount = p.TotalAmount / 2
	for i := range p.Stages {
		p.Stages[i].Amount /= 2
		p.Stages[i].Coins /= 2
	}
	if p.StageIndex > 0 {
		p.StageIndex--
	}
	p.recompute()
	return coins, amount
}

// AveragePrice returns the capital-weighted average entry price. The state
// machine guarantees at least one stage exists before this is read.
func (p *Position) AveragePrice() float64 {
	if p.TotalCoins == 0 {
		return 0
	}
	return p.TotalAmount / p.TotalCoins
}

// FirstEntryPrice returns the stage-0 entry price
func (p *Position) FirstEntryPrice() float64 {
	if len(p.Stages) == 0 {
		return 0
	}
	return p.Stages[0].EntryPrice
}

// ProfitRate returns the unrealized profit percentage at the given price,
// signed by position direction
func (p *Position) ProfitRate(price float64) float64 {
	avg := p.AveragePrice()
	if avg == 0 {
		return 0
	}
	if p.Type == PositionShort {
		return (avg - price) / avg * 100
	}
	return (price - avg) / avg * 100
}

// Duration returns the holding time up to the given close timestamp
func (p *Position) Duration(closedAt int64) time.Duration {
	return time.Duration(closedAt-p.OpenedAt) * time.Millisecond
}

func (p *Position) recompute() {
	totalAmount := 0.0
	totalCoins := 0.0
	for _, stage := range p.Stages {
		totalAmount += stage.Amount
		totalCoins += stage.Coins
	}
	p.TotalAmount = totalAmount
	p.TotalCoins = totalCoins
}
