// Package favorites manages a user's saved movies on top of a document
// repository, with an optional full-text index and change notifications.
package favorites

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/discovery"
	"github.com/cinefinder/cinefinder-server/internal/domain"
	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/normalize"
	"github.com/cinefinder/cinefinder-server/internal/search"
	"github.com/cinefinder/cinefinder-server/internal/store"
)

// Repository persists favorite entries keyed by "userID_movieID".
// Both the Badger store and the MongoDB store implement it.
type Repository interface {
	GetFavorite(ctx context.Context, userID string, movieID int) (*domain.FavoriteEntry, error)
	HasFavorite(ctx context.Context, userID string, movieID int) (bool, error)
	PutFavorite(ctx context.Context, entry *domain.FavoriteEntry) error
	DeleteFavorite(ctx context.Context, userID string, movieID int) error
	ListFavorites(ctx context.Context, userID string) ([]*domain.FavoriteEntry, error)
	AllFavorites(ctx context.Context) ([]*domain.FavoriteEntry, error)
}

// Index is the full-text side index. It is never the source of truth.
type Index interface {
	IndexFavorite(e *domain.FavoriteEntry) error
	IndexFavorites(entries []*domain.FavoriteEntry) error
	RemoveFavorite(userID string, movieID int) error
	Rebuild() error
	Search(ctx context.Context, params search.SearchParams) ([]search.Hit, error)
}

// Notifier is told about every add and remove.
type Notifier interface {
	FavoriteChanged(userID string, movieID int, isFavorite bool)
}

// Service is the favorites adapter used by the API.
type Service struct {
	repo     Repository
	index    Index
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a favorites service over repo.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetIndex attaches a full-text index. Without one, Search falls back to
// substring matching over folded text.
func (s *Service) SetIndex(index Index) {
	s.index = index
}

// SetNotifier attaches a change notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// IsFavorite reports whether userID saved movieID.
func (s *Service) IsFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	if err := checkIDs(userID, movieID); err != nil {
		return false, err
	}
	ok, err := s.repo.HasFavorite(ctx, userID, movieID)
	if err != nil {
		return false, s.mapError(err, "check favorite")
	}
	return ok, nil
}

// Add saves a snapshot of m for userID. Adding twice overwrites the entry.
func (s *Service) Add(ctx context.Context, userID string, m domain.Movie) (*domain.FavoriteEntry, error) {
	if err := checkIDs(userID, m.ID); err != nil {
		return nil, err
	}

	entry := domain.NewFavoriteEntry(userID, m, s.now())
	if err := s.repo.PutFavorite(ctx, entry); err != nil {
		return nil, s.mapError(err, "add favorite")
	}

	if s.index != nil {
		if err := s.index.IndexFavorite(entry); err != nil {
			s.logger.Warn("failed to index favorite", "key", entry.Key(), "error", err)
		}
	}
	s.notify(userID, m.ID, true)

	s.logger.Info("favorite added", "user_id", userID, "movie_id", m.ID)
	return entry, nil
}

// Remove deletes the entry. Removing a missing entry succeeds.
func (s *Service) Remove(ctx context.Context, userID string, movieID int) error {
	if err := checkIDs(userID, movieID); err != nil {
		return err
	}

	if err := s.repo.DeleteFavorite(ctx, userID, movieID); err != nil {
		return s.mapError(err, "remove favorite")
	}

	if s.index != nil {
		if err := s.index.RemoveFavorite(userID, movieID); err != nil {
			s.logger.Warn("failed to unindex favorite", "user_id", userID, "movie_id", movieID, "error", err)
		}
	}
	s.notify(userID, movieID, false)

	s.logger.Info("favorite removed", "user_id", userID, "movie_id", movieID)
	return nil
}

// SnapshotLoader fetches the movie to snapshot when a toggle adds it.
type SnapshotLoader func(ctx context.Context) (domain.Movie, error)

// Toggle removes movieID if saved, otherwise loads its snapshot and adds it.
// load is not called on removal. The returned entry is nil when the movie
// was removed.
func (s *Service) Toggle(ctx context.Context, userID string, movieID int, load SnapshotLoader) (*domain.FavoriteEntry, bool, error) {
	saved, err := s.IsFavorite(ctx, userID, movieID)
	if err != nil {
		return nil, false, err
	}
	if saved {
		return nil, false, s.Remove(ctx, userID, movieID)
	}

	m, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	entry, err := s.Add(ctx, userID, m)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// List returns userID's favorites, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.FavoriteEntry, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("sign in to see your favorites")
	}
	entries, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, s.mapError(err, "list favorites")
	}
	return entries, nil
}

// ListFiltered applies the same filter used for search results to the
// favorites list.
func (s *Service) ListFiltered(ctx context.Context, userID string, f domain.FilterState) ([]*domain.FavoriteEntry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Filter(entries, f), nil
}

// Filter keeps the entries whose snapshot passes f, in order.
func Filter(entries []*domain.FavoriteEntry, f domain.FilterState) []*domain.FavoriteEntry {
	if f.IsZero() {
		return entries
	}
	out := make([]*domain.FavoriteEntry, 0, len(entries))
	for _, e := range entries {
		if discovery.Matches(e.Movie(), f) {
			out = append(out, e)
		}
	}
	return out
}

// Search returns userID's favorites matching text, best match first.
func (s *Service) Search(ctx context.Context, userID, text string) ([]*domain.FavoriteEntry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if normalize.IsBlank(text) {
		return []*domain.FavoriteEntry{}, nil
	}

	if s.index == nil {
		return substringMatches(entries, text), nil
	}

	hits, err := s.index.Search(ctx, search.SearchParams{UserID: userID, Query: text, Limit: len(entries)})
	if err != nil {
		s.logger.Warn("favorites index search failed, falling back", "error", err)
		return substringMatches(entries, text), nil
	}

	byID := make(map[int]*domain.FavoriteEntry, len(entries))
	for _, e := range entries {
		byID[e.MovieID] = e
	}
	out := make([]*domain.FavoriteEntry, 0, len(hits))
	for _, h := range hits {
		// The repository wins if the index is stale.
		if e, ok := byID[h.MovieID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Reindex rebuilds the index from the repository.
func (s *Service) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	all, err := s.repo.AllFavorites(ctx)
	if err != nil {
		return s.mapError(err, "load favorites for reindex")
	}
	if err := s.index.Rebuild(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "rebuild favorites index")
	}
	if err := s.index.IndexFavorites(all); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "index favorites")
	}
	s.logger.Info("favorites index rebuilt", "documents", len(all))
	return nil
}

func (s *Service) notify(userID string, movieID int, isFavorite bool) {
	if s.notifier != nil {
		s.notifier.FavoriteChanged(userID, movieID, isFavorite)
	}
}

// mapError converts repository failures to coded errors. Permission
// failures stay distinguishable; everything else is internal.
func (s *Service) mapError(err error, op string) error {
	if domainerrors.Is(err, store.ErrForbidden) {
		return domainerrors.PermissionDenied("you do not have permission to access these favorites").WithCause(err)
	}
	if domainerrors.Is(err, store.ErrInvalidInput) {
		return domainerrors.Validation("favorite needs a user and a movie").WithCause(err)
	}
	s.logger.Error(op+" failed", "error", err)
	return domainerrors.Internal("favorites are unavailable right now, please try again").WithCause(err)
}

func checkIDs(userID string, movieID int) error {
	if userID == "" {
		return domainerrors.Unauthorized("sign in to manage favorites")
	}
	if movieID <= 0 {
		return domainerrors.ValidationWithDetails("invalid movie", map[string]string{"movie_id": "must be a positive number"})
	}
	return nil
}

func substringMatches(entries []*domain.FavoriteEntry, text string) []*domain.FavoriteEntry {
	needle := normalize.Fold(text)
	out := []*domain.FavoriteEntry{}
	for _, e := range entries {
		if strings.Contains(normalize.Fold(e.Title), needle) || strings.Contains(normalize.Fold(e.Overview), needle) {
			out = append(out, e)
		}
	}
	return out
}
