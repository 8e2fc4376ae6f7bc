package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/cci-trader/internal/database"
	"github.com/yourusername/cci-trader/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStrategyConfigRepository implements StrategyConfigRepository for PostgreSQL
type PostgresStrategyConfigRepository struct {
	db *database.DB
}

// NewPostgresStrategyConfigRepository creates a new strategy config repository
func NewPostgresStrategyConfigRepository(db *database.DB) StrategyConfigRepository {
	return &PostgresStrategyConfigRepository{db: db}
}

// Create inserts a new strategy config
func (r *PostgresStrategyConfigRepository) Create(ctx context.Context, cfg *models.StrategyConfig) error {
	if cfg.Name == "" {
		return models.ErrConfigNameRequired
	}
	if err := cfg.Settings.Validate(); err != nil {
		return err
	}

	settings, err := cfg.SettingsJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	query := `
		INSERT INTO strategy_configs (id, user_id, name, settings, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		cfg.ID, cfg.UserID, cfg.Name, settings, cfg.Active, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("config %q for user %q: %w", cfg.Name, cfg.UserID, models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create strategy config: %w", err)
	}

	return nil
}

// GetByID retrieves a strategy config by ID
func (r *PostgresStrategyConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StrategyConfig, error) {
	query := `
		SELECT id, user_id, name, settings, active, created_at, updated_at
		FROM strategy_configs WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByName retrieves a strategy config by user and name
func (r *PostgresStrategyConfigRepository) GetByName(ctx context.Context, userID, name string) (*models.StrategyConfig, error) {
	query := `
		SELECT id, user_id, name, settings, active, created_at, updated_at
		FROM strategy_configs
		WHERE user_id = $1 AND name = $2
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID, name))
}

// GetActive retrieves all active configs for a user
func (r *PostgresStrategyConfigRepository) GetActive(ctx context.Context, userID string) ([]*models.StrategyConfig, error) {
	query := `
		SELECT id, user_id, name, settings, active, created_at, updated_at
		FROM strategy_configs
		WHERE user_id = $1 AND active = true
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.StrategyConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// Update updates an existing strategy config
func (r *PostgresStrategyConfigRepository) Update(ctx context.Context, cfg *models.StrategyConfig) error {
	if err := cfg.Settings.Validate(); err != nil {
		return err
	}

	settings, err := cfg.SettingsJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	query := `
		UPDATE strategy_configs SET
			name = $2, settings = $3, active = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, cfg.ID, cfg.Name, settings, cfg.Active)
	if err != nil {
		return fmt.Errorf("failed to update strategy config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetActive toggles a config's active flag
func (r *PostgresStrategyConfigRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE strategy_configs SET active = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to set config active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes a strategy config
func (r *PostgresStrategyConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM strategy_configs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete strategy config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresStrategyConfigRepository) scanOne(row pgx.Row) (*models.StrategyConfig, error) {
	cfg := &models.StrategyConfig{}
	var settings []byte
	err := row.Scan(&cfg.ID, &cfg.UserID, &cfg.Name, &settings, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy config: %w", err)
	}
	if err := cfg.ParseSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to parse stored settings: %w", err)
	}
	return cfg, nil
}

func scanConfig(rows pgx.Rows) (*models.StrategyConfig, error) {
	cfg := &models.StrategyConfig{}
	var settings []byte
	err := rows.Scan(&cfg.ID, &cfg.UserID, &cfg.Name, &settings, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan strategy config: %w", err)
	}
	if err := cfg.ParseSettings(settings); err != nil {
		return nil, fmt.Errorf("failed to parse stored settings: %w", err)
	}
	return cfg, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
