package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeType classifies a capital event in the trade log
type TradeType string

const (
	TradeStageEntry TradeType = "STAGE_ENTRY"
	TradeProfitExit TradeType = "PROFIT_EXIT"
	TradeFullExit   TradeType = "FULL_EXIT"
	TradeHalfSell   TradeType = "HALF_SELL"
	TradeStopLoss   TradeType = "STOP_LOSS"
	TradeForceClose TradeType = "FORCE_CLOSE"
)

// IsExit reports whether the trade type closes capital out of the position
func (t TradeType) IsExit() bool {
	switch t {
	case TradeProfitExit, TradeFullExit, TradeHalfSell, TradeStopLoss, TradeForceClose:
		return true
	default:
		return false
	}
}

// TradeExecution is an immutable record of one capital event. Instances are
// produced append-only and never mutated after creation.
type TradeExecution struct {
	ID          uuid.UUID    `json:"id"`
	PositionID  uuid.UUID    `json:"position_id"`
	Type        TradeType    `json:"type"`
	Direction   PositionType `json:"direction"`
	Symbol      string       `json:"symbol"`
	StageIndex  int          `json:"stage_index"`
	EntryPrice  float64      `json:"entry_price"`
	ExitPrice   float64      `json:"exit_price,omitempty"`
	Amount      float64      `json:"amount"`
	Fee         float64      `json:"fee"`
	GrossProfit float64      `json:"gross_profit"`
	NetProfit   float64      `json:"net_profit"`
	Timestamp   int64        `json:"timestamp"`
	EntryCCI    float64      `json:"entry_cci"`
	ExitCCI     float64      `json:"exit_cci,omitempty"`
}

// PositionResult summarizes a fully closed position
type PositionResult struct {
	ID          uuid.UUID        `json:"id"`
	Type        PositionType     `json:"type"`
	Symbol      string           `json:"symbol"`
	MaxStage    int              `json:"max_stage"`
	TotalProfit float64          `json:"total_profit"`
	TotalFees   float64          `json:"total_fees"`
	ExitReason  TradeType        `json:"exit_reason"`
	StartTime   int64            `json:"start_time"`
	EndTime     int64            `json:"end_time"`
	Duration    time.Duration    `json:"duration"`
	Trades      []TradeExecution `json:"trades"`
}

// Won reports whether the position closed with a positive net profit
func (r PositionResult) Won() bool {
	return r.TotalProfit > 0
}
