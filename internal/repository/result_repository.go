package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/cci-trader/internal/database"
	"github.com/yourusername/cci-trader/internal/models"
)

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// SaveResult persists a completed run. Headline metrics go into columns for
// querying; the full result (positions and trade log included) is stored as
// JSONB alongside.
func (r *PostgresBacktestResultRepository) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	detail, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	query := `
		INSERT INTO backtest_results
			(id, symbol, timeframe, total_positions, total_trades, win_rate,
			 total_profit, total_fees, max_drawdown, profit_factor, final_capital,
			 detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.Exec(ctx, query,
		uuid.New(), result.Symbol, result.Timeframe, result.TotalPositions,
		result.TotalTrades, result.WinRate, result.TotalProfit, result.TotalFees,
		result.MaxDrawdown, result.ProfitFactor, result.FinalCapital,
		detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetBySymbol retrieves the most recent results for a symbol
func (r *PostgresBacktestResultRepository) GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.BacktestResult, error) {
	query := `
		SELECT detail FROM backtest_results
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryResults(ctx, query, symbol, limit)
}

// GetLatest retrieves the most recent results across all symbols
func (r *PostgresBacktestResultRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	query := `
		SELECT detail FROM backtest_results
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryResults(ctx, query, limit)
}

func (r *PostgresBacktestResultRepository) queryResults(ctx context.Context, query string, args ...any) ([]*models.BacktestResult, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	var results []*models.BacktestResult
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan backtest result: %w", err)
		}
		result := &models.BacktestResult{}
		if err := json.Unmarshal(detail, result); err != nil {
			return nil, fmt.Errorf("failed to parse stored result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
