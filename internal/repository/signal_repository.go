package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/cci-trader/internal/database"
	"github.com/yourusername/cci-trader/internal/models"
)

// PostgresSignalRepository implements SignalRepository for PostgreSQL
type PostgresSignalRepository struct {
	db *database.DB
}

// NewPostgresSignalRepository creates a new signal repository
func NewPostgresSignalRepository(db *database.DB) SignalRepository {
	return &PostgresSignalRepository{db: db}
}

// Insert records an emitted signal
func (r *PostgresSignalRepository) Insert(ctx context.Context, signal *models.MarketSignal) error {
	query := `
		INSERT INTO market_signals (id, symbol, direction, price, volume, cci, reason, timeframe, candle_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		signal.ID, signal.Symbol, signal.Direction, signal.Price, signal.Volume,
		signal.CCI, signal.Reason, signal.Timeframe, signal.Timestamp, signal.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("signal %s: %w", signal.DedupKey(), models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

// GetBySymbol retrieves the most recent signals for a symbol
func (r *PostgresSignalRepository) GetBySymbol(ctx context.Context, symbol string, limit int) ([]*models.MarketSignal, error) {
	query := `
		SELECT id, symbol, direction, price, volume, cci, reason, timeframe, candle_time, created_at
		FROM market_signals
		WHERE symbol = $1
		ORDER BY candle_time DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.MarketSignal
	for rows.Next() {
		s := &models.MarketSignal{}
		err := rows.Scan(&s.ID, &s.Symbol, &s.Direction, &s.Price, &s.Volume,
			&s.CCI, &s.Reason, &s.Timeframe, &s.Timestamp, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// GetRecent retrieves all signals created after the given time
func (r *PostgresSignalRepository) GetRecent(ctx context.Context, since time.Time) ([]*models.MarketSignal, error) {
	query := `
		SELECT id, symbol, direction, price, volume, cci, reason, timeframe, candle_time, created_at
		FROM market_signals
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.MarketSignal
	for rows.Next() {
		s := &models.MarketSignal{}
		err := rows.Scan(&s.ID, &s.Symbol, &s.Direction, &s.Price, &s.Volume,
			&s.CCI, &s.Reason, &s.Timeframe, &s.Timestamp, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// DeleteOlderThan prunes signal history and reports the number of rows removed
func (r *PostgresSignalRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM market_signals WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune signals: %w", err)
	}
	return tag.RowsAffected(), nil
}
