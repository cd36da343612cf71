package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

// LoadSearchState returns the saved state for clientKey, or a zero state
// when nothing was saved.
func (s *Store) LoadSearchState(ctx context.Context, clientKey string) (*domain.SearchState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state domain.SearchState
	err := s.get(searchStateKey(clientKey), &state, ErrNotFound)
	if errors.Is(err, ErrNotFound) {
		return &domain.SearchState{Results: []domain.Movie{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load search state: %w", err)
	}
	return &state, nil
}

// SaveSearchState replaces the saved state for clientKey. The entry expires
// after ttl; a non-positive ttl keeps it forever.
func (s *Store) SaveSearchState(ctx context.Context, clientKey string, state *domain.SearchState, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.setWithTTL(searchStateKey(clientKey), state, ttl); err != nil {
		return fmt.Errorf("save search state: %w", err)
	}
	return nil
}
