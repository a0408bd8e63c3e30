package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/handlers/render"
	"github.com/aurora-backend/aurora/internal/handlers/userctx"
	"github.com/aurora-backend/aurora/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware authenticates the request by its access token and puts the
// user into the request context.
// Expired tokens get a dedicated 403 so clients know to refresh instead of
// re-login.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err != nil {
				if errors.Is(err, apperrors.ErrTokenExpired) {
					render.ServiceError(w, "Access token expired", http.StatusForbidden)
					return
				}
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
