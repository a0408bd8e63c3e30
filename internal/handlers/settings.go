package handlers

import (
	"errors"
	"net/http"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/handlers/render"
	"github.com/aurora-backend/aurora/internal/handlers/userctx"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/models"
)

type settingsResponse struct {
	Currency          string `json:"currency"`
	DarkMode          bool   `json:"dark_mode"`
	AbbreviatedFormat bool   `json:"abbreviated_format"`
}

func handleGetSettings(transactionService transactionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		settings, err := transactionService.GetSettings(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get settings", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, settingsResponse{
			Currency:          settings.Currency,
			DarkMode:          settings.DarkMode,
			AbbreviatedFormat: settings.AbbreviatedFormat,
		})
	})
}

func handleUpdateSettings(transactionService transactionService, l logger.Logger) http.Handler {
	type request struct {
		Currency          *string `json:"currency" validate:"omitempty,currency_code"`
		DarkMode          *bool   `json:"dark_mode"`
		AbbreviatedFormat *bool   `json:"abbreviated_format"`
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

		settings, err := transactionService.UpdateSettings(r.Context(), user.ID, models.SettingsPatch{
			Currency:          data.Currency,
			DarkMode:          data.DarkMode,
			AbbreviatedFormat: data.AbbreviatedFormat,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrCurrencyInvalid):
				render.ServiceError(w, "Unknown currency code", http.StatusUnprocessableEntity)
			default:
				l.Error("Failed to update settings", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, settingsResponse{
			Currency:          settings.Currency,
			DarkMode:          settings.DarkMode,
			AbbreviatedFormat: settings.AbbreviatedFormat,
		})
	})
}
