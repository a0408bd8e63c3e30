// Package sweeper purges session records whose refresh token has expired.
// The store's own TTL already evicts entries at their natural expiry; the
// sweep is a redundant safety net for entries whose TTL accounting drifted.
// It is best-effort: triggers are fire-and-forget and per-key failures are
// logged and skipped.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/aurora-backend/aurora/internal/apperrors"
	"github.com/aurora-backend/aurora/internal/logger"
	"github.com/aurora-backend/aurora/internal/service/auth/tokenmanager"
	"github.com/aurora-backend/aurora/internal/sessionstore"
)

const defaultInterval = time.Hour

type Config struct {
	// Interval between unprompted sweeps
	// If not set then default is used
	Interval time.Duration
}

type Sweeper struct {
	store    sessionstore.Store
	tokens   *tokenmanager.TokenManager
	logger   logger.Logger
	interval time.Duration

	trigger chan struct{}
}

func New(cfg Config, store sessionstore.Store, tokens *tokenmanager.TokenManager, l logger.Logger) (*Sweeper, error) {
	if store == nil || tokens == nil {
		return nil, errors.New("store and token manager must not be nil")
	}

	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Sweeper{
		store:    store,
		tokens:   tokens,
		logger:   l,
		interval: cfg.Interval,
		trigger:  make(chan struct{}, 1),
	}, nil
}

// Trigger requests a sweep without waiting for it. A request that arrives
// while one is already pending is dropped.
func (s *Sweeper) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run sweeps on every trigger and on a ticker until the context is
// cancelled. The returned channel closes once the loop has stopped.
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped")
				return
			case <-ticker.C:
			case <-s.trigger:
			}

			removed, err := s.sweep(ctx)
			if err != nil {
				s.logger.Error("Sweep failed", "error", err)
				continue
			}
			s.logger.Debug("Sweep finished", "removed", removed)
		}
	}()

	return idleStopped
}

// sweep scans every session key, verifies the refresh token embedded in it
// and deletes entries classified as expired. Anything else, including keys
// that do not parse, is left alone.
func (s *Sweeper) sweep(ctx context.Context) (removed int, err error) {
	keys, err := s.store.Keys(ctx, "*")
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		_, token, err := sessionstore.SplitKey(key)
		if err != nil {
			s.logger.Warn("Skipping malformed session key", "key", key, "error", err)
			continue
		}

		_, err = s.tokens.ParseRefresh(token)
		if !errors.Is(err, apperrors.ErrTokenExpired) {
			continue
		}

		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete expired session", "key", key, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
