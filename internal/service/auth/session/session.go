// Package session orchestrates the lifecycle of refresh-token sessions:
// issuance at login, rotation at refresh, invalidation at logout, and bulk
// invalidation ("logout everywhere"). State lives in the session store only;
// a token's state is observed through presence or absence of its key.
package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/models"
	"github.com/aurora-backend/aurora/internal/service/auth/tokenmanager"
	"github.com/aurora-backend/aurora/internal/sessionstore"
)

const defaultSweepEvery = 10

type Config struct {
	// Trigger a store sweep on every Nth login
	// If not set then default is used
	SweepEvery int64

	// SweepTrigger is called fire-and-forget from the login path
	// Optional: nil disables sweep scheduling
	SweepTrigger func()
}

type Manager struct {
	store  sessionstore.Store
	tokens *tokenmanager.TokenManager
	logger logger.Logger

	sweepEvery   int64
	sweepTrigger func()
	loginCount   atomic.Int64

	// Rotation of a given refresh token is serialized through a striped
	// lock, so two concurrent Refresh calls presenting the same token
	// cannot both pass the existence check. Operations on different keys
	// stay independent up to stripe collisions.
	rotation stripedMutex
}

func NewManager(cfg Config, store sessionstore.Store, tokens *tokenmanager.TokenManager, l logger.Logger) (*Manager, error) {
	if store == nil || tokens == nil {
		return nil, errors.New("store and token manager must not be nil")
	}

	if cfg.SweepEvery == 0 {
		cfg.SweepEvery = defaultSweepEvery
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Manager{
		store:        store,
		tokens:       tokens,
		logger:       l,
		sweepEvery:   cfg.SweepEvery,
		sweepTrigger: cfg.SweepTrigger,
	}, nil
}

// Login issues a fresh token pair and records the refresh half in the store.
// Existing sessions of the user are untouched: one session per device.
func (m *Manager) Login(ctx context.Context, userID int64) (models.TokenPair, error) {
	pair, err := m.tokens.IssuePair(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	key := sessionstore.Key(userID, pair.Refresh.Value)
	if err := m.store.Set(ctx, key, sessionstore.Marker, pair.Refresh.ExpiresAt); err != nil {
		return models.TokenPair{}, err
	}

	if m.sweepTrigger != nil && m.loginCount.Add(1)%m.sweepEvery == 0 {
		m.sweepTrigger()
	}

	return pair, nil
}

// Refresh rotates a refresh token: the presented token is consumed exactly
// once and a brand-new pair is issued and recorded. Replays of a rotated or
// logged-out token fail the same way forged ones do.
func (m *Manager) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	// Verify before touching the store: forged tokens never reach it
	userID, err := m.tokens.ParseRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, invalidRefresh(err)
	}

	key := sessionstore.Key(userID, refresh)

	unlock := m.rotation.lock(key)
	defer unlock()

	_, err = m.store.Get(ctx, key)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return models.TokenPair{}, invalidRefresh(err)
	case err != nil:
		return models.TokenPair{}, err
	}

	if err := m.store.Delete(ctx, key); err != nil {
		return models.TokenPair{}, err
	}

	pair, err := m.tokens.IssuePair(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	newKey := sessionstore.Key(userID, pair.Refresh.Value)
	if err := m.store.Set(ctx, newKey, sessionstore.Marker, pair.Refresh.ExpiresAt); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout invalidates one session. The refresh token must belong to the same
// user as the presented access token: a stolen access token cannot be used
// to log out an unrelated session.
func (m *Manager) Logout(ctx context.Context, accessUserID int64, refresh string) error {
	userID, err := m.tokens.ParseRefresh(refresh)
	if err != nil {
		return invalidRefresh(err)
	}

	if userID != accessUserID {
		return invalidRefresh(fmt.Errorf("user id mismatch: access %d, refresh %d", accessUserID, userID))
	}

	key := sessionstore.Key(userID, refresh)

	_, err = m.store.Get(ctx, key)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return invalidRefresh(err)
	case err != nil:
		return err
	}

	return m.store.Delete(ctx, key)
}

// InvalidateAll revokes every session of the user owning the presented
// refresh token, the caller's own included. Returns the user id so callers
// can confirm scope.
func (m *Manager) InvalidateAll(ctx context.Context, refresh string) (int64, error) {
	userID, err := m.tokens.ParseRefresh(refresh)
	if err != nil {
		return 0, invalidRefresh(err)
	}

	if err := m.InvalidateUser(ctx, userID); err != nil {
		return 0, err
	}

	return userID, nil
}

// InvalidateUser revokes every session of a user by id. Used by password
// reset, where no token of the user is at hand.
func (m *Manager) InvalidateUser(ctx context.Context, userID int64) error {
	keys, err := m.store.Keys(ctx, sessionstore.UserPattern(userID))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := m.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	m.logger.Info("invalidated all sessions", "user_id", userID, "count", len(keys))
	return nil
}

// invalidRefresh folds any rejection cause into the single caller-visible
// error. The cause stays in the message for logs but is not matchable.
func invalidRefresh(cause error) error {
	return fmt.Errorf("%w (cause: %v)", apperrors.ErrInvalidRefreshToken, cause)
}

const stripes = 64

// stripedMutex serializes operations on the same session key. Distinct keys
// may share a stripe; that only over-serializes, never under-serializes.
type stripedMutex struct {
	locks [stripes]sync.Mutex
}

func (s *stripedMutex) lock(key string) (unlock func()) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &s.locks[h.Sum32()%stripes]

	mu.Lock()
	return mu.Unlock
}
