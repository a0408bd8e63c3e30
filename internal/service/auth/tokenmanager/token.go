// Package tokenmanager issues and verifies the signed access and refresh
// tokens. The two classes are signed with distinct secrets: compromise of
// one never allows forging the other, and their expiry policies stay
// independent.
package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secrets to sign access and refresh token payloads
	// Both required, must differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	accessKey  string
	refreshKey string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("both access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessKey:  cfg.AccessSecret,
		refreshKey: cfg.RefreshSecret,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// RefreshTTL returns the configured refresh token lifetime. The session
// manager uses it to align store expiry with token expiry.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *TokenManager) IssueAccess(userID int64) (models.IssuedToken, error) {
	return m.issue(userID, m.accessKey, m.accessTTL)
}

func (m *TokenManager) IssueRefresh(userID int64) (models.IssuedToken, error) {
	return m.issue(userID, m.refreshKey, m.refreshTTL)
}

// IssuePair issues an access and a refresh token carrying the same user id.
func (m *TokenManager) IssuePair(userID int64) (models.TokenPair, error) {
	access, err := m.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) issue(userID int64, key string, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: userID,
		},
	)

	signed, err := token.SignedString([]byte(key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// ParseAccess parses and validates an access token
func (m *TokenManager) ParseAccess(token string) (userID int64, err error) {
	return m.parse(token, m.accessKey)
}

// ParseRefresh parses and validates a refresh token
func (m *TokenManager) ParseRefresh(token string) (userID int64, err error) {
	return m.parse(token, m.refreshKey)
}

func (m *TokenManager) parse(token string, key string) (int64, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)

	switch {
	case err == nil:
		return claims.UserID, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, fmt.Errorf("%w: %v", apperrors.ErrTokenExpired, err)
	default:
		// Malformed and bad-signature collapse into one class
		return 0, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}
}
