package transaction

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
	"github.com/aurora-backend/aurora/internal/repository/postgres"
	"github.com/aurora-backend/aurora/internal/testutil"
)

func TestTransactionService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Each case runs in a rolled back transaction with one user created
	inTx := func(t *testing.T, fn func(s *TransactionService, userID int64)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			user, err := storage.User().CreateUser(t.Context(), "owner@example.com", "hash")
			require.NoError(t, err)
			_, err = storage.Settings().Save(t.Context(), models.Settings{UserID: user.ID, Currency: models.DefaultCurrency})
			require.NoError(t, err)

			fn(NewService(storage), user.ID)
		})
	}

	newTr := func(userID int64, amount int64, currency string) models.Transaction {
		return models.Transaction{
			UserID:   userID,
			Amount:   decimal.NewFromInt(amount),
			Currency: currency,
			Date:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Tag:      "groceries",
		}
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				created, err := s.Create(t.Context(), newTr(userID, -42, "EUR"))

				require.NoError(t, err)
				require.NotZero(t, created.ID, "id should be assigned")
				require.Equal(t, userID, created.UserID)
				require.True(t, created.Amount.Equal(decimal.NewFromInt(-42)))
				require.Equal(t, "groceries", created.Tag)
			})
		})

		t.Run("invalid currency fail", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				_, err := s.Create(t.Context(), newTr(userID, 10, "EURO"))

				require.ErrorIs(t, err, apperrors.ErrCurrencyInvalid)
			})
		})

		t.Run("zero date defaults to now", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				tr := newTr(userID, 10, "EUR")
				tr.Date = time.Time{}

				created, err := s.Create(t.Context(), tr)

				require.NoError(t, err)
				require.WithinDuration(t, time.Now(), created.Date, time.Minute)
			})
		})
	})

	t.Run("Get scoped by owner", func(t *testing.T) {
		inTx(t, func(s *TransactionService, userID int64) {
			created, err := s.Create(t.Context(), newTr(userID, 10, "EUR"))
			require.NoError(t, err)

			got, err := s.Get(t.Context(), userID, created.ID)
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)

			// Another user must not see it
			_, err = s.Get(t.Context(), userID+1, created.ID)
			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("partial patch", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				created, err := s.Create(t.Context(), newTr(userID, 10, "EUR"))
				require.NoError(t, err)

				tag := "rent"
				updated, err := s.Update(t.Context(), userID, created.ID, repository.TransactionPatch{Tag: &tag})

				require.NoError(t, err)
				require.Equal(t, "rent", updated.Tag)
				require.True(t, updated.Amount.Equal(created.Amount), "untouched fields should survive")
				require.Equal(t, created.Currency, updated.Currency)
			})
		})

		t.Run("invalid currency fail", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				created, err := s.Create(t.Context(), newTr(userID, 10, "EUR"))
				require.NoError(t, err)

				bad := "XXX-NOPE"
				_, err = s.Update(t.Context(), userID, created.ID, repository.TransactionPatch{Currency: &bad})

				require.ErrorIs(t, err, apperrors.ErrCurrencyInvalid)
			})
		})

		t.Run("not existed fail", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				tag := "rent"
				_, err := s.Update(t.Context(), userID, 404404, repository.TransactionPatch{Tag: &tag})

				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
			})
		})
	})

	t.Run("Delete", func(t *testing.T) {
		inTx(t, func(s *TransactionService, userID int64) {
			created, err := s.Create(t.Context(), newTr(userID, 10, "EUR"))
			require.NoError(t, err)

			require.NoError(t, s.Delete(t.Context(), userID, created.ID))

			_, err = s.Get(t.Context(), userID, created.ID)
			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)

			err = s.Delete(t.Context(), userID, created.ID)
			require.ErrorIs(t, err, apperrors.ErrTransactionNotFound, "second delete should fail")
		})
	})

	t.Run("Balances", func(t *testing.T) {
		inTx(t, func(s *TransactionService, userID int64) {
			for _, tr := range []models.Transaction{
				newTr(userID, 100, "EUR"),
				newTr(userID, -40, "EUR"),
				newTr(userID, 7, "USD"),
			} {
				_, err := s.Create(t.Context(), tr)
				require.NoError(t, err)
			}

			balances, err := s.Balances(t.Context(), userID)
			require.NoError(t, err)
			require.Len(t, balances, 2)

			byCurrency := map[string]decimal.Decimal{}
			for _, b := range balances {
				byCurrency[b.Currency] = b.Total
			}
			require.True(t, byCurrency["EUR"].Equal(decimal.NewFromInt(60)), "EUR total should be 60, got %s", byCurrency["EUR"])
			require.True(t, byCurrency["USD"].Equal(decimal.NewFromInt(7)), "USD total should be 7, got %s", byCurrency["USD"])
		})
	})

	t.Run("Settings", func(t *testing.T) {
		t.Run("get defaults", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				settings, err := s.GetSettings(t.Context(), userID)

				require.NoError(t, err)
				require.Equal(t, models.DefaultCurrency, settings.Currency)
				require.False(t, settings.DarkMode)
			})
		})

		t.Run("patch keeps untouched fields", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				dark := true
				settings, err := s.UpdateSettings(t.Context(), userID, models.SettingsPatch{DarkMode: &dark})

				require.NoError(t, err)
				require.True(t, settings.DarkMode)
				require.Equal(t, models.DefaultCurrency, settings.Currency, "currency should survive patch")
			})
		})

		t.Run("invalid currency fail", func(t *testing.T) {
			inTx(t, func(s *TransactionService, userID int64) {
				bad := "EURO"
				_, err := s.UpdateSettings(t.Context(), userID, models.SettingsPatch{Currency: &bad})

				require.ErrorIs(t, err, apperrors.ErrCurrencyInvalid)
			})
		})
	})
}
