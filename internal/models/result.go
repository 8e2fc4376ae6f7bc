package models

import (
	"encoding/json"
	"fmt"
)

// BacktestResult is the final aggregate of a run. It is derived once from the
// full trade history and is never mutated afterwards.
type BacktestResult struct {
	Symbol           string           `json:"symbol"`
	Timeframe        Timeframe        `json:"timeframe"`
	TotalPositions   int              `json:"total_positions"`
	WinningPositions int              `json:"winning_positions"`
	LosingPositions  int              `json:"losing_positions"`
	TotalTrades      int              `json:"total_trades"`
	TotalProfit      float64          `json:"total_profit"`
	TotalFees        float64          `json:"total_fees"`
	MaxDrawdown      float64          `json:"max_drawdown"`
	FinalCapital     float64          `json:"final_capital"`
	WinRate          float64          `json:"win_rate"`
	ProfitFactor     float64          `json:"profit_factor"`
	Positions        []PositionResult `json:"positions"`
	Trades           []TradeExecution `json:"trades"`
}

// ToJSON exports the result to JSON
func (r BacktestResult) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}
	return string(data), nil
}
