package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(userID string, movieID int, addedAt time.Time) *domain.FavoriteEntry {
	return &domain.FavoriteEntry{
		UserID:   userID,
		MovieID:  movieID,
		Title:    "Movie",
		Rating:   domain.Float(7.5),
		GenreIDs: []int{28},
		AddedAt:  addedAt,
	}
}

func TestFavoritesCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ok, err := s.HasFavorite(ctx, "u1", 603)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutFavorite(ctx, entry("u1", 603, now)))

	ok, err = s.HasFavorite(ctx, "u1", 603)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetFavorite(ctx, "u1", 603)
	require.NoError(t, err)
	assert.Equal(t, "Movie", got.Title)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 7.5, *got.Rating, 0)
	assert.True(t, now.Equal(got.AddedAt))

	// Overwrite never duplicates.
	updated := entry("u1", 603, now.Add(time.Minute))
	updated.Title = "Renamed"
	require.NoError(t, s.PutFavorite(ctx, updated))

	list, err := s.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Title)

	require.NoError(t, s.DeleteFavorite(ctx, "u1", 603))
	_, err = s.GetFavorite(ctx, "u1", 603)
	assert.ErrorIs(t, err, store.ErrFavoriteNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Idempotent delete.
	require.NoError(t, s.DeleteFavorite(ctx, "u1", 603))
}

func TestListFavorites_NewestFirstAndScopedToUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.PutFavorite(ctx, entry("u1", 1, base)))
	require.NoError(t, s.PutFavorite(ctx, entry("u1", 2, base.Add(2*time.Hour))))
	require.NoError(t, s.PutFavorite(ctx, entry("u1", 3, base.Add(time.Hour))))
	require.NoError(t, s.PutFavorite(ctx, entry("u10", 4, base.Add(3*time.Hour))))

	list, err := s.ListFavorites(ctx, "u1")
	require.NoError(t, err)

	movieIDs := make([]int, len(list))
	for i, e := range list {
		movieIDs[i] = e.MovieID
	}
	assert.Equal(t, []int{2, 3, 1}, movieIDs)

	empty, err := s.ListFavorites(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	all, err := s.AllFavorites(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPutFavorite_RejectsIncompleteEntry(t *testing.T) {
	s := setupTestStore(t)

	err := s.PutFavorite(context.Background(), &domain.FavoriteEntry{UserID: "u1"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestStore_CanceledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListFavorites(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)

	err = s.PutFavorite(ctx, entry("u1", 1, time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchState_LoadSave(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	zero, err := s.LoadSearchState(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, zero.Query)
	assert.Empty(t, zero.Filters.Genres)
	assert.Zero(t, zero.Filters.MinRating)

	state := &domain.SearchState{
		Query:     "matrix",
		StartDate: "1990-01-01",
		Results:   []domain.Movie{{ID: 603, Title: "Matrix"}},
		Filters:   domain.FilterState{Genres: []int{28}, MinRating: 7},
	}
	require.NoError(t, s.SaveSearchState(ctx, "u1", state, time.Hour))

	got, err := s.LoadSearchState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "matrix", got.Query)
	assert.Equal(t, "1990-01-01", got.StartDate)
	assert.Equal(t, []int{28}, got.Filters.Genres)
	require.Len(t, got.Results, 1)
	assert.Equal(t, 603, got.Results[0].ID)
}

func TestStore_Ping(t *testing.T) {
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(context.Background()), store.ErrUnavailable)
}
