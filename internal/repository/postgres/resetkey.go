package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
)

type ResetKeyRepo struct {
	DB DBTX
}

const createResetKey = `-- name: Create password reset key
INSERT INTO password_reset_keys (user_id, key, expires_at)
VALUES ($1, $2, $3)`

func (r *ResetKeyRepo) Create(ctx context.Context, key models.PasswordResetKey) error {
	_, err := r.DB.Exec(ctx, createResetKey, key.UserID, key.Key, key.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const consumeResetKey = `-- name: Consume key, single use
DELETE FROM password_reset_keys
WHERE key = $1 AND expires_at > now()
RETURNING user_id`

// Consume removes the key so each key resets a password at most once.
// Expired keys are rejected; a separate cleanup is unnecessary because
// consuming is the only read path.
func (r *ResetKeyRepo) Consume(ctx context.Context, key string) (int64, error) {
	rows, _ := r.DB.Query(ctx, consumeResetKey, key)
	userID, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])

	switch {
	case err == nil:
		return userID, nil
	case errors.Is(err, pgx.ErrNoRows):
		return 0, fmt.Errorf("repo error: %w", apperrors.ErrResetKeyInvalid)
	default:
		return 0, fmt.Errorf("db error: %w", err)
	}
}
