package handlers

import (
	"errors"
	"net/http"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/handlers/render"
	"github.com/aurora-backend/aurora/internal/handlers/userctx"
	"github.com/aurora-backend/aurora/internal/logger"
)

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Register(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("Failed to register user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		authService.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{Message: "User registered successfully"})
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrWrongCredentials):
				render.ServiceError(w, "Wrong email or password", http.StatusUnauthorized)
			default:
				l.Error("Failed to login user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		authService.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{Message: "User logged in successfully"})
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not provided", http.StatusBadRequest)
			return
		}

		pair, err := authService.Refresh(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidRefreshToken):
				render.ServiceError(w, "Invalid refresh token", http.StatusForbidden)
			default:
				l.Error("Failed to refresh tokens", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		authService.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{Message: "Tokens refreshed successfully"})
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not provided", http.StatusBadRequest)
			return
		}

		err = authService.Logout(r.Context(), user.ID, refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidRefreshToken):
				render.ServiceError(w, "Invalid refresh token", http.StatusForbidden)
			default:
				l.Error("Failed to logout user", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "User logged out successfully"})
	})
}

// Revoke every session of the refresh token's owner. The token itself names
// the user, so no access token is required: useful right after a device is
// reported stolen.
func handleInvalidateSessions(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not provided", http.StatusBadRequest)
			return
		}

		userID, err := authService.InvalidateSessions(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidRefreshToken):
				render.ServiceError(w, "Invalid refresh token", http.StatusForbidden)
			default:
				l.Error("Failed to invalidate sessions", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		l.Info("All sessions invalidated", "user_id", userID)
		render.JSON(w, response{Message: "All sessions invalidated"})
	})
}

func handlePasswordForgot(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := userService.RequestPasswordReset(r.Context(), data.Email); err != nil {
			l.Error("Failed to request password reset", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// Same answer whether the email is registered or not
		render.JSON(w, response{Message: "Reset key sent if the email is registered"})
	})
}

func handlePasswordReset(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Key      string `json:"key" validate:"required,len=64"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = userService.ResetPassword(r.Context(), data.Key, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrResetKeyInvalid):
				render.ServiceError(w, "Invalid or expired reset key", http.StatusForbidden)
			default:
				l.Error("Failed to reset password", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password reset successfully"})
	})
}

func handlePasswordChange(userService userService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
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

		err = userService.ChangePassword(r.Context(), user.ID, data.CurrentPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrWrongCredentials):
				render.ServiceError(w, "Wrong current password", http.StatusForbidden)
			default:
				l.Error("Failed to change password", "error", err, "user_id", user.ID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}
