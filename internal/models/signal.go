package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction is the side of a detected entry signal
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// MarketSignal is one detected entry signal, emitted at most once per genuine
// breakout-and-reentry transition during live monitoring.
type MarketSignal struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	CCI       float64   `json:"cci"`
	Reason    string    `json:"reason"`
	Timeframe Timeframe `json:"timeframe"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// DedupKey identifies a signal for notification de-duplication
func (s MarketSignal) DedupKey() string {
	return fmt.Sprintf("%s:%s:%s:%d", s.Symbol, s.Timeframe, s.Direction, s.Timestamp)
}
