package handlers

import (
	"context"
	"net/http"

	"github.com/aurora-backend/aurora/internal/handlers/middleware"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/repository"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	transactionService transactionService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /login", handleLogin(authService, logger))
	apiuser.Handle("POST /refresh", handleTokenRefresh(authService, logger))
	apiuser.Handle("POST /logout", withAuth(handleLogout(authService, logger)))
	apiuser.Handle("POST /sessions/invalidate", handleInvalidateSessions(authService, logger))

	apiuser.Handle("POST /password/forgot", handlePasswordForgot(userService, logger))
	apiuser.Handle("POST /password/reset", handlePasswordReset(userService, logger))
	apiuser.Handle("POST /password/change", withAuth(handlePasswordChange(userService, logger)))

	apiuser.Handle("GET /me", withAuth(handleUserMe()))
	apiuser.Handle("DELETE /me", withAuth(handleDeleteMe(userService, logger)))

	api := http.NewServeMux()

	api.Handle("POST /transactions", withAuth(handleCreateTransaction(transactionService, logger)))
	api.Handle("GET /transactions", withAuth(handleListTransactions(transactionService, logger)))
	api.Handle("GET /transactions/{id}", withAuth(handleGetTransaction(transactionService, logger)))
	api.Handle("PATCH /transactions/{id}", withAuth(handleUpdateTransaction(transactionService, logger)))
	api.Handle("DELETE /transactions/{id}", withAuth(handleDeleteTransaction(transactionService, logger)))
	api.Handle("GET /balances", withAuth(handleBalances(transactionService, logger)))
	api.Handle("GET /settings", withAuth(handleGetSettings(transactionService, logger)))
	api.Handle("PATCH /settings", withAuth(handleUpdateSettings(transactionService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with email and password
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrWrongCredentials on bad email or password
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh rotates the token pair
	// Has to return apperrors.ErrInvalidRefreshToken if token can't be used
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Logout terminates the session named by the refresh token
	// Has to return apperrors.ErrInvalidRefreshToken if token can't be used
	// or belongs to another user
	Logout(ctx context.Context, accessUserID int64, refresh string) error

	// InvalidateSessions revokes every session of the token's owner
	InvalidateSessions(ctx context.Context, refresh string) (int64, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	ChangePassword(ctx context.Context, userID int64, currentPassword string, newPassword string) error
	DeleteUser(ctx context.Context, userID int64) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, key string, newPassword string) error
}

type transactionService interface {
	Create(ctx context.Context, tr models.Transaction) (models.Transaction, error)
	Get(ctx context.Context, userID int64, id int64) (models.Transaction, error)
	List(ctx context.Context, userID int64) ([]models.Transaction, error)
	Update(ctx context.Context, userID int64, id int64, patch repository.TransactionPatch) (models.Transaction, error)
	Delete(ctx context.Context, userID int64, id int64) error
	Balances(ctx context.Context, userID int64) ([]models.Balance, error)

	GetSettings(ctx context.Context, userID int64) (models.Settings, error)
	UpdateSettings(ctx context.Context, userID int64, patch models.SettingsPatch) (models.Settings, error)
}
