// Package sessionstore defines the capability contract for tracking live
// refresh tokens. A session record exists under "{userId}-{refreshToken}"
// exactly while that refresh token may still be exchanged for a new pair.
package sessionstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Marker is the value stored for every live session. Presence is what
// matters, not content.
const Marker = "1"

// Store is a minimal expiring key-value contract. Any conforming backend
// works; the session manager never assumes a specific one.
//
// Implementations must evict entries at-or-after expiresAt on their own,
// even if Delete is never called.
type Store interface {
	// Set creates or overwrites an entry that expires at expiresAt.
	Set(ctx context.Context, key string, marker string, expiresAt time.Time) error

	// Get returns the marker for key.
	// Must return apperrors.ErrSessionNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys matching a glob pattern, e.g. "42-*".
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Key builds the session key for a user's refresh token.
func Key(userID int64, refreshToken string) string {
	return fmt.Sprintf("%d-%s", userID, refreshToken)
}

// UserPattern matches every session key of a user.
func UserPattern(userID int64) string {
	return fmt.Sprintf("%d-*", userID)
}

// SplitKey breaks a session key back into user id and refresh token.
func SplitKey(key string) (userID int64, refreshToken string, err error) {
	id, token, found := strings.Cut(key, "-")
	if !found {
		return 0, "", fmt.Errorf("malformed session key %q", key)
	}

	userID, err = strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed session key %q: %w", key, err)
	}

	return userID, token, nil
}
