// Package memory provides an in-process session store. Used in tests and
// single-node runs where redis is not worth operating.
package memory

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/aurora-backend/aurora/internal/apperrors"
)

type entry struct {
	marker    string
	expiresAt time.Time
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is replaceable in tests
	now func() time.Time
}

func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *Store) Set(ctx context.Context, key string, marker string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{marker: marker, expiresAt: expiresAt}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("memory store: %w", apperrors.ErrSessionNotFound)
	}

	// Lazy eviction: an expired entry is as good as absent
	if !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", fmt.Errorf("memory store: %w", apperrors.ErrSessionNotFound)
	}

	return e.marker, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for key, e := range s.entries {
		if !e.expiresAt.After(now) {
			continue
		}

		matched, err := path.Match(pattern, key)
		if err != nil {
			return nil, fmt.Errorf("memory store: bad pattern %q: %w", pattern, err)
		}
		if matched {
			keys = append(keys, key)
		}
	}

	return keys, nil
}
