package repository

import (
	"fmt"

	"github.com/yourusername/cci-trader/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	StrategyConfig StrategyConfigRepository
	Signal         SignalRepository
	BacktestResult BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		StrategyConfig: NewPostgresStrategyConfigRepository(db),
		Signal:         NewPostgresSignalRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
	}, nil
}
