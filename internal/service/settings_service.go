package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	app_errors "lifeline/backend/internal/errors"
)

// Keys of the settings table.
const (
	settingSystemPrompt = "system_prompt"
	settingModel        = "model"
	settingForceOffline = "force_offline"
)

// Settings holds the runtime assistant settings stored in SQLite.
type Settings struct {
	SystemPrompt string `json:"system_prompt"`
	Model        string `json:"model" validate:"required"`
	ForceOffline bool   `json:"force_offline"`
}

type SettingsService struct {
	db       *sql.DB
	defaults Settings
}

// NewSettingsService falls back to defaults for any key missing from the table.
func NewSettingsService(db *sql.DB, defaults Settings) *SettingsService {
	return &SettingsService{db: db, defaults: defaults}
}

// InitAndGet seeds the table with the defaults on first start and returns the
// effective settings. A stored empty model is replaced by the default one.
func (s *SettingsService) InitAndGet(ctx context.Context) (*Settings, error) {
	settings, found, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if found == 0 {
		slog.Info("No settings found in database. Saving defaults.", "model", s.defaults.Model)
		if err := s.saveToDB(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to save initial settings: %w", err)
		}
		return settings, nil
	}

	if settings.Model == "" && s.defaults.Model != "" {
		slog.Warn("Stored model is empty, restoring the default.", "model", s.defaults.Model)
		settings.Model = s.defaults.Model
		if err := s.saveToDB(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to repair settings: %w", err)
		}
	}

	slog.Info("Loaded settings from database.", "model", settings.Model, "force_offline", settings.ForceOffline)
	return settings, nil
}

// Get retrieves the current settings.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	settings, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Save validates and stores every setting in one transaction.
func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	if settings.Model == "" {
		return fmt.Errorf("%w: model cannot be empty", app_errors.ErrValidation)
	}
	return s.saveToDB(ctx, settings)
}

// load overlays the stored rows on the defaults and reports how many rows
// were found.
func (s *SettingsService) load(ctx context.Context) (*Settings, int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := s.defaults
	found := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, 0, fmt.Errorf("failed to scan setting: %w", err)
		}
		found++
		switch key {
		case settingSystemPrompt:
			settings.SystemPrompt = value
		case settingModel:
			settings.Model = value
		case settingForceOffline:
			b, err := strconv.ParseBool(value)
			if err != nil {
				slog.Warn("Ignoring invalid force_offline setting", "value", value)
				continue
			}
			settings.ForceOffline = b
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read settings: %w", err)
	}
	return &settings, found, nil
}

func (s *SettingsService) saveToDB(ctx context.Context, settings *Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	values := []struct{ key, value string }{
		{settingModel, settings.Model},
		{settingSystemPrompt, settings.SystemPrompt},
		{settingForceOffline, strconv.FormatBool(settings.ForceOffline)},
	}
	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, v.key, v.value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", v.key, err)
		}
	}

	return tx.Commit()
}
