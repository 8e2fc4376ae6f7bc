// Package repository provides PostgreSQL persistence for strategy configs,
// emitted signals and backtest results.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/cci-trader/internal/models"
)

// StrategyConfigRepository defines the interface for strategy config data access
type StrategyConfigRepository interface {
	Create(ctx context.Context, cfg *models.StrategyConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StrategyConfig, error)
	GetByName(ctx context.Context, userID, name string) (*models.StrategyConfig, error)
	GetActive(ctx context.Context, userID string) ([]*models.StrategyConfig, error)
	Update(ctx context.Context, cfg *models.StrategyConfig) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SignalRepository defines the interface for emitted signal history
type SignalRepository interface {
	Insert(ctx context.Context, signal *models.MarketSignal) error
	GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.MarketSignal, error)
	GetRecent(ctx context.Context, since time.Time) ([]*models.MarketSignal, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// BacktestResultRepository defines backtest result persistence
type BacktestResultRepository interface {
	SaveResult(ctx context.Context, result *models.BacktestResult) error
	GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.BacktestResult, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error)
}
