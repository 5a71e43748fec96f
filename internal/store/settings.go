package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Settings live in a singleton document.
const (
	CollectionSettings = "settings"
	settingsDocID      = "config"
)

// GetSettings loads the settings document, falling back to defaults
// when none has been saved yet.
func (s *Store) GetSettings() (Settings, error) {
	d, err := s.Get(CollectionSettings, settingsDocID)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	var cfg Settings
	if err := json.Unmarshal(d.Data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if cfg.YearGoal == 0 {
		cfg.YearGoal = DefaultSettings().YearGoal
	}
	return cfg, nil
}

// SaveSettings replaces the settings document.
func (s *Store) SaveSettings(cfg Settings) error {
	return s.Put(CollectionSettings, settingsDocID, cfg)
}
