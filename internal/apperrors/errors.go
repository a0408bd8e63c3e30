package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongCredentials  = errors.New("wrong email or password")

	// Token verification failures. Expired is kept distinguishable so the
	// middleware may hint clients to refresh; malformed and bad signature
	// collapse into a single class.
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrInvalidRefreshToken covers every way a refresh may be rejected:
	// forged, expired, already rotated, logged out, or user id mismatch.
	// Callers must not be able to tell these apart.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionStoreUnavailable = errors.New("session store unavailable")

	ErrResetKeyInvalid = errors.New("password reset key is invalid")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCurrencyInvalid     = errors.New("invalid currency code")
)
