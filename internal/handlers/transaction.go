package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/handlers/render"
	"github.com/aurora-backend/aurora/internal/handlers/userctx"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
)

type transactionResponse struct {
	ID       int64           `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
	Tag      string          `json:"tag,omitempty"`
}

func asTransactionResponse(tr models.Transaction) transactionResponse {
	return transactionResponse{
		ID:       tr.ID,
		Amount:   tr.Amount,
		Currency: tr.Currency,
		Date:     tr.Date,
		Tag:      tr.Tag,
	}
}

// transactionID reads the {id} path value. Second value is false if it is
// not a number, the error response is written already in that case.
func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		render.ServiceError(w, "Invalid transaction id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func handleCreateTransaction(transactionService transactionService, l logger.Logger) http.Handler {
	type request struct {
		Amount   decimal.Decimal `json:"amount" validate:"required"`
		Currency string          `json:"currency" validate:"required,currency_code"`
		Date     time.Time       `json:"date"`
		Tag      string          `json:"tag" validate:"max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := transactionService.Create(r.Context(), models.Transaction{
			UserID:   user.ID,
			Amount:   data.Amount,
			Currency: data.Currency,
			Date:     data.Date,
			Tag:      data.Tag,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrCurrencyInvalid):
				render.ServiceError(w, "Unknown currency code", http.StatusUnprocessableEntity)
			default:
				l.Error("Failed to create transaction", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, asTransactionResponse(created))
	})
}

func handleListTransactions(transactionService transactionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		transactions, err := transactionService.List(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list transactions", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]transactionResponse, 0, len(transactions))
		for _, tr := range transactions {
			response = append(response, asTransactionResponse(tr))
		}
		render.JSON(w, response)
	})
}

func handleGetTransaction(transactionService transactionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := transactionID(w, r)
		if !ok {
			return
		}

		tr, err := transactionService.Get(r.Context(), user.ID, id)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTransactionNotFound):
				render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			default:
				l.Error("Failed to get transaction", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, asTransactionResponse(tr))
	})
}

func handleUpdateTransaction(transactionService transactionService, l logger.Logger) http.Handler {
	type request struct {
		Amount   *decimal.Decimal `json:"amount"`
		Currency *string          `json:"currency" validate:"omitempty,currency_code"`
		Date     *time.Time       `json:"date"`
		Tag      *string          `json:"tag" validate:"omitempty,max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := transactionID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := transactionService.Update(r.Context(), user.ID, id, repository.TransactionPatch{
			Amount:   data.Amount,
			Currency: data.Currency,
			Date:     data.Date,
			Tag:      data.Tag,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTransactionNotFound):
				render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrCurrencyInvalid):
				render.ServiceError(w, "Unknown currency code", http.StatusUnprocessableEntity)
			default:
				l.Error("Failed to update transaction", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, asTransactionResponse(updated))
	})
}

func handleDeleteTransaction(transactionService transactionService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := transactionID(w, r)
		if !ok {
			return
		}

		err := transactionService.Delete(r.Context(), user.ID, id)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTransactionNotFound):
				render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			default:
				l.Error("Failed to delete transaction", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Transaction deleted"})
	})
}

func handleBalances(transactionService transactionService, l logger.Logger) http.Handler {
	type balance struct {
		Currency string          `json:"currency"`
		Total    decimal.Decimal `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		balances, err := transactionService.Balances(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get balances", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]balance, 0, len(balances))
		for _, b := range balances {
			response = append(response, balance{Currency: b.Currency, Total: b.Total})
		}
		render.JSON(w, response)
	})
}
