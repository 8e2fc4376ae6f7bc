package models

import "errors"

// Custom errors
var (
	ErrNoData             = errors.New("no candle data available")
	ErrInvalidData        = errors.New("invalid candle data")
	ErrInvalidSettings    = errors.New("invalid strategy settings")
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrPositionOpen       = errors.New("a position is already open")
	ErrNoOpenPosition     = errors.New("no open position")
	ErrConfigNameRequired = errors.New("strategy configuration name is required")
)
