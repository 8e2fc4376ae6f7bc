package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StrategyConfig is a named, persisted strategy parameter set. Multiple
// configs can exist per user; at most one per symbol is marked active and
// picked up by the monitor.
type StrategyConfig struct {
	ID        uuid.UUID        `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Settings  StrategySettings `json:"settings"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewStrategyConfig creates a config with a fresh ID
func NewStrategyConfig(userID, name string, settings StrategySettings) *StrategyConfig {
	now := time.Now().UTC()
	return &StrategyConfig{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Settings:  settings,
		Active:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SettingsJSON serializes the settings for JSONB storage
func (c *StrategyConfig) SettingsJSON() ([]byte, error) {
	return json.Marshal(c.Settings)
}

// ParseSettings deserializes settings from JSONB storage
func (c *StrategyConfig) ParseSettings(data []byte) error {
	return json.Unmarshal(data, &c.Settings)
}
