// Package auth glues credential verification, token issuance and session
// lifecycle into the service the HTTP layer talks to. It also owns how
// tokens travel over HTTP: access in the Authorization header, refresh in
// an httpOnly cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/service/auth/session"
	"github.com/aurora-backend/aurora/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "RefreshToken"
)

// ErrNoRefreshToken is returned when a request carries no refresh token at
// all. Distinct from ErrInvalidRefreshToken: missing maps to 400, invalid
// to 403.
var ErrNoRefreshToken = errors.New("no refresh token provided")

type Config struct {
	// HTTP transport for the token pair
	// If not set then defaults are used
	AccessHeaderName  string
	AccessAuthScheme  string
	RefreshCookieName string
}

// User management the auth service relies on. Credential checks happen
// there; this service never sees password hashes.
type userService interface {
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	CreateUser(ctx context.Context, email string, password string) (models.User, error)

	// Has to return apperrors.ErrWrongCredentials on bad email or password
	VerifyCredentials(ctx context.Context, email string, password string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound if user not found
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
}

type AuthService struct {
	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string

	tokens   *tokenmanager.TokenManager
	sessions *session.Manager
	users    userService
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, sessions *session.Manager, users userService) (*AuthService, error) {
	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
		tokens:            tokens,
		sessions:          sessions,
		users:             users,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.CreateUser(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.sessions.Login(ctx, user.ID)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.sessions.Login(ctx, user.ID)
}

func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	return s.sessions.Refresh(ctx, refresh)
}

func (s *AuthService) Logout(ctx context.Context, accessUserID int64, refresh string) error {
	return s.sessions.Logout(ctx, accessUserID, refresh)
}

// InvalidateSessions revokes every session of the token's owner, the
// caller's included, and reports whose sessions were revoked.
func (s *AuthService) InvalidateSessions(ctx context.Context, refresh string) (int64, error) {
	return s.sessions.InvalidateAll(ctx, refresh)
}

// GetUserFromRequest authenticates a request by its access token.
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)
	if header == "" {
		return models.User{}, fmt.Errorf("missing %s header: %w", s.accessHeaderName, apperrors.ErrTokenInvalid)
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) || token == "" {
		return models.User{}, fmt.Errorf("malformed %s header: %w", s.accessHeaderName, apperrors.ErrTokenInvalid)
	}

	userID, err := s.tokens.ParseAccess(token)
	if err != nil {
		return models.User{}, err
	}

	return s.users.GetUserByID(ctx, userID)
}

// GetRefreshString reads the refresh token from the request cookie.
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoRefreshToken
	}

	return cookie.Value, nil
}

// SetTokenPairToResponse writes the pair the way clients expect it: access
// token in the auth header, refresh token in an httpOnly cookie.
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Expires:  pair.Refresh.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// SetTokenPairToRequest mirrors SetTokenPairToResponse for outgoing
// requests. Handy in tests and clients.
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(&http.Cookie{
		Name:  s.refreshCookieName,
		Value: pair.Refresh.Value,
	})
}
