package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aurora-backend/aurora/internal/models"
)

// Storage bundles all repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Transaction() TransactionRepo
	Settings() SettingsRepo
	ResetKey() ResetKeyRepo

	// InTx runs fn against a Storage bound to a database transaction.
	// Rolled back if fn returns an error, committed otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error

	// Delete user and all dependent rows
	DeleteUser(ctx context.Context, userID int64) error
}

// Partial transaction update; nil fields are left untouched
type TransactionPatch struct {
	Amount   *decimal.Decimal
	Currency *string
	Date     *time.Time
	Tag      *string
}

type TransactionRepo interface {
	Create(ctx context.Context, tr models.Transaction) (models.Transaction, error)

	// Scoped by user: a transaction is only visible to its owner
	// If not found must return apperrors.ErrTransactionNotFound
	Get(ctx context.Context, userID int64, id int64) (models.Transaction, error)
	List(ctx context.Context, userID int64) ([]models.Transaction, error)
	Update(ctx context.Context, userID int64, id int64, patch TransactionPatch) (models.Transaction, error)
	Delete(ctx context.Context, userID int64, id int64) error

	// Balances sums amounts per currency
	Balances(ctx context.Context, userID int64) ([]models.Balance, error)
}

type SettingsRepo interface {
	// Get settings; a defaults row is created at signup
	// If user has no row must return apperrors.ErrUserNotFound
	Get(ctx context.Context, userID int64) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) (models.Settings, error)
}

type ResetKeyRepo interface {
	Create(ctx context.Context, key models.PasswordResetKey) error

	// Consume deletes the key and returns its owner.
	// Absent or expired keys must return apperrors.ErrResetKeyInvalid
	Consume(ctx context.Context, key string) (userID int64, err error)
}
