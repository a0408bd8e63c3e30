package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
)

type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: Create transaction
INSERT INTO transactions (user_id, amount, currency, date, tag)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, amount, currency, date, tag`

func (r *TransactionRepo) Create(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction, tr.UserID, tr.Amount, tr.Currency, tr.Date, tr.Tag)
	created, err := pgx.CollectOneRow(rows, scanTransaction)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

const getTransaction = `-- name: Get transaction scoped by owner
SELECT id, user_id, amount, currency, date, tag
FROM transactions
WHERE user_id = $1 AND id = $2`

func (r *TransactionRepo) Get(ctx context.Context, userID int64, id int64) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, userID, id)
	return collectTransaction(rows)
}

const listTransactions = `-- name: List user transactions
SELECT id, user_id, amount, currency, date, tag
FROM transactions
WHERE user_id = $1
ORDER BY date DESC, id DESC`

func (r *TransactionRepo) List(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, userID)
	trs, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return trs, nil
}

const updateTransaction = `-- name: Patch transaction, nulls keep current values
UPDATE transactions
SET amount   = COALESCE($3, amount),
    currency = COALESCE($4, currency),
    date     = COALESCE($5, date),
    tag      = COALESCE($6, tag)
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, amount, currency, date, tag`

func (r *TransactionRepo) Update(ctx context.Context, userID int64, id int64, patch repository.TransactionPatch) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, updateTransaction, userID, id, patch.Amount, patch.Currency, patch.Date, patch.Tag)
	return collectTransaction(rows)
}

const deleteTransaction = `-- name: Delete transaction scoped by owner
DELETE FROM transactions
WHERE user_id = $1 AND id = $2`

func (r *TransactionRepo) Delete(ctx context.Context, userID int64, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteTransaction, userID, id)

	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return fmt.Errorf("repo error: %w", apperrors.ErrTransactionNotFound)
	default:
		return nil
	}
}

const sumBalances = `-- name: Per-currency balance
SELECT currency, COALESCE(SUM(amount), 0) AS total
FROM transactions
WHERE user_id = $1
GROUP BY currency
ORDER BY currency`

func (r *TransactionRepo) Balances(ctx context.Context, userID int64) ([]models.Balance, error) {
	rows, _ := r.DB.Query(ctx, sumBalances, userID)
	balances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Balance, error) {
		var b models.Balance
		err := row.Scan(&b.Currency, &b.Total)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return balances, nil
}

func scanTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.Date, &t.Tag)
	return t, err
}

func collectTransaction(rows pgx.Rows) (models.Transaction, error) {
	tr, err := pgx.CollectOneRow(rows, scanTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, fmt.Errorf("repo error: %w", apperrors.ErrTransactionNotFound)
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}
