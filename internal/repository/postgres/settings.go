package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
)

type SettingsRepo struct {
	DB DBTX
}

const getSettings = `-- name: Get user settings
SELECT user_id, currency, dark_mode, abbreviated_format
FROM settings
WHERE user_id = $1`

func (r *SettingsRepo) Get(ctx context.Context, userID int64) (models.Settings, error) {
	rows, _ := r.DB.Query(ctx, getSettings, userID)
	settings, err := pgx.CollectOneRow(rows, scanSettings)

	switch {
	case err == nil:
		return settings, nil
	case errors.Is(err, pgx.ErrNoRows):
		return settings, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return settings, fmt.Errorf("db error: %w", err)
	}
}

const saveSettings = `-- name: Upsert user settings
INSERT INTO settings (user_id, currency, dark_mode, abbreviated_format)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET currency = EXCLUDED.currency,
    dark_mode = EXCLUDED.dark_mode,
    abbreviated_format = EXCLUDED.abbreviated_format
RETURNING user_id, currency, dark_mode, abbreviated_format`

func (r *SettingsRepo) Save(ctx context.Context, settings models.Settings) (models.Settings, error) {
	rows, _ := r.DB.Query(ctx, saveSettings, settings.UserID, settings.Currency, settings.DarkMode, settings.AbbreviatedFormat)
	saved, err := pgx.CollectOneRow(rows, scanSettings)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

func scanSettings(row pgx.CollectableRow) (models.Settings, error) {
	var s models.Settings
	err := row.Scan(&s.UserID, &s.Currency, &s.DarkMode, &s.AbbreviatedFormat)
	return s, err
}
