package handlers

import (
	"net/http"
	"time"

	"github.com/aurora-backend/aurora/internal/handlers/render"
	"github.com/aurora-backend/aurora/internal/handlers/userctx"
	"github.com/aurora-backend/aurora/internal/logger"
)

func handleUserMe() http.Handler {
	type response struct {
		ID        int64     `json:"id"`
		Email     string    `json:"email"`
		FirstName string    `json:"first_name,omitempty"`
		LastName  string    `json:"last_name,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			CreatedAt: user.CreatedAt,
		})
	})
}

func handleDeleteMe(userService userService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := userService.DeleteUser(r.Context(), user.ID); err != nil {
			l.Error("Failed to delete user", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "User deleted"})
	})
}
