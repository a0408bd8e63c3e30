package models

import (
	"time"
)

// PasswordResetKey is a single-use key mailed to the user.
// Expires one hour after creation.
type PasswordResetKey struct {
	UserID    int64
	Key       string
	ExpiresAt time.Time
}
