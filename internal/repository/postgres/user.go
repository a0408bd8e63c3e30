package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: Create user
INSERT INTO users (email, hashed_password)
VALUES ($1, $2)
RETURNING id, created_at, email, first_name, last_name, hashed_password`

func (r *UserRepo) CreateUser(ctx context.Context, email string, hashedPassword string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, email, hashedPassword)
	user, err := pgx.CollectOneRow(rows, scanUser)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return user, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserAlreadyExists)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByID = `-- name: Get user by id
SELECT id, created_at, email, first_name, last_name, hashed_password
FROM users
WHERE id = $1`

func (r *UserRepo) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	return collectUser(rows)
}

const getUserByEmail = `-- name: Get user by email
SELECT id, created_at, email, first_name, last_name, hashed_password
FROM users
WHERE email = $1`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const updatePassword = `-- name: Update user password
UPDATE users
SET hashed_password = $2
WHERE id = $1`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword)

	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return nil
	}
}

const deleteUser = `-- name: Delete user
DELETE FROM users
WHERE id = $1`

// Dependent rows (transactions, settings, reset keys) go with the user
// through ON DELETE CASCADE.
func (r *UserRepo) DeleteUser(ctx context.Context, userID int64) error {
	tag, err := r.DB.Exec(ctx, deleteUser, userID)

	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return nil
	}
}

func scanUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.FirstName, &u.LastName, &u.HashedPassword)
	return u, err
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, scanUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}
