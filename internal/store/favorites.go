package store

import (
	"cmp"
	"context"
	"encoding/json/v2"
	"fmt"
	"slices"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

// ErrFavoriteNotFound is returned when a user has not saved a movie.
var ErrFavoriteNotFound = ErrNotFound.WithMessage("favorite not found")

// GetFavorite returns the entry for userID and movieID.
func (s *Store) GetFavorite(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry domain.FavoriteEntry
	if err := s.get(favoriteKey(userID, movieID), &entry, ErrFavoriteNotFound); err != nil {
		return nil, err
	}
	return &entry, nil
}

// HasFavorite reports whether userID saved movieID.
func (s *Store) HasFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists(favoriteKey(userID, movieID))
}

// PutFavorite creates or overwrites an entry. The composite key makes a
// duplicate impossible.
func (s *Store) PutFavorite(ctx context.Context, entry *domain.FavoriteEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.UserID == "" || entry.MovieID == 0 {
		return ErrInvalidInput.WithMessage("favorite needs a user and a movie")
	}
	if err := s.set(favoriteKey(entry.UserID, entry.MovieID), entry); err != nil {
		return fmt.Errorf("put favorite: %w", err)
	}
	return nil
}

// DeleteFavorite removes an entry. Removing a missing entry succeeds.
func (s *Store) DeleteFavorite(ctx context.Context, userID string, movieID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete(favoriteKey(userID, movieID))
}

// ListFavorites returns a user's favorites, newest first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]*domain.FavoriteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []*domain.FavoriteEntry{}
	err := s.scanPrefix(favoriteUserPrefix(userID), func(val []byte) error {
		var entry domain.FavoriteEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		if entry.UserID == userID {
			results = append(results, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	slices.SortStableFunc(results, func(a, b *domain.FavoriteEntry) int {
		return cmp.Compare(b.AddedAt.UnixNano(), a.AddedAt.UnixNano())
	})
	return results, nil
}

// AllFavorites returns every stored entry in key order. It feeds index rebuilds.
func (s *Store) AllFavorites(ctx context.Context) ([]*domain.FavoriteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []*domain.FavoriteEntry{}
	err := s.scanPrefix([]byte(favoritePrefix), func(val []byte) error {
		var entry domain.FavoriteEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return err
		}
		results = append(results, &entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan favorites: %w", err)
	}
	return results, nil
}
