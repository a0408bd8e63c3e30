// Package transaction holds the bookkeeping side of the app: user
// transactions, per-currency balances and user settings.
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
)

type TransactionService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *TransactionService {
	return &TransactionService{storage: storage}
}

func (s *TransactionService) Create(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	if !models.IsCurrencyCode(tr.Currency) {
		return models.Transaction{}, fmt.Errorf("currency %q: %w", tr.Currency, apperrors.ErrCurrencyInvalid)
	}
	if tr.Date.IsZero() {
		tr.Date = time.Now()
	}

	created, err := s.storage.Transaction().Create(ctx, tr)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("can't create transaction: %w", err)
	}
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID int64, id int64) (models.Transaction, error) {
	return s.storage.Transaction().Get(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return s.storage.Transaction().List(ctx, userID)
}

func (s *TransactionService) Update(ctx context.Context, userID int64, id int64, patch repository.TransactionPatch) (models.Transaction, error) {
	if patch.Currency != nil && !models.IsCurrencyCode(*patch.Currency) {
		return models.Transaction{}, fmt.Errorf("currency %q: %w", *patch.Currency, apperrors.ErrCurrencyInvalid)
	}

	updated, err := s.storage.Transaction().Update(ctx, userID, id, patch)
	if err != nil {
		return models.Transaction{}, err
	}
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID int64, id int64) error {
	return s.storage.Transaction().Delete(ctx, userID, id)
}

// Balances sums the user's transactions per currency.
func (s *TransactionService) Balances(ctx context.Context, userID int64) ([]models.Balance, error) {
	balances, err := s.storage.Transaction().Balances(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("can't calculate balances: %w", err)
	}
	return balances, nil
}

func (s *TransactionService) GetSettings(ctx context.Context, userID int64) (models.Settings, error) {
	return s.storage.Settings().Get(ctx, userID)
}

// UpdateSettings applies a partial update and returns the result.
func (s *TransactionService) UpdateSettings(ctx context.Context, userID int64, patch models.SettingsPatch) (models.Settings, error) {
	if patch.Currency != nil && !models.IsCurrencyCode(*patch.Currency) {
		return models.Settings{}, fmt.Errorf("currency %q: %w", *patch.Currency, apperrors.ErrCurrencyInvalid)
	}

	var settings models.Settings
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		current, err := st.Settings().Get(ctx, userID)
		if err != nil {
			return err
		}

		if patch.Currency != nil {
			current.Currency = *patch.Currency
		}
		if patch.DarkMode != nil {
			current.DarkMode = *patch.DarkMode
		}
		if patch.AbbreviatedFormat != nil {
			current.AbbreviatedFormat = *patch.AbbreviatedFormat
		}

		settings, err = st.Settings().Save(ctx, current)
		return err
	})
	if err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}
