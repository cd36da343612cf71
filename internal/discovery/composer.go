// Package discovery turns a search query into a ranked, filtered movie list.
package discovery

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	domainerrors "github.com/cinefinder/cinefinder-server/internal/errors"
	"github.com/cinefinder/cinefinder-server/internal/normalize"
)

// Date bounds substituted for an absent start or end.
var (
	MinReleaseDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxReleaseDate = time.Date(2100, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Catalog is the subset of the movie catalog the composer needs.
type Catalog interface {
	SearchMovies(ctx context.Context, query string) ([]domain.Movie, error)
	SimilarMovies(ctx context.Context, id int) ([]domain.Movie, error)
}

// Composer runs a primary search, expands it with titles similar to the
// best primary match, then merges, deduplicates and ranks the result.
type Composer struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(catalog Catalog, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{catalog: catalog, logger: logger}
}

// Compose returns the ranked results for q. The two catalog calls run in
// sequence. Only a primary search failure is an error; a similar-titles
// failure yields the primary results alone.
func (c *Composer) Compose(ctx context.Context, q domain.SearchQuery) ([]domain.Movie, error) {
	text := normalize.Query(q.Text)
	if text == "" {
		return []domain.Movie{}, nil
	}

	primary, err := c.catalog.SearchMovies(ctx, text)
	if err != nil {
		return nil, domainerrors.CatalogUnavailable(err)
	}
	primary = filterByDate(primary, q)

	var expansion []domain.Movie
	if len(primary) > 0 {
		seed := primary[0]
		expansion, err = c.catalog.SimilarMovies(ctx, seed.ID)
		if err != nil {
			c.logger.Warn("similar titles unavailable, using primary results only",
				"movie_id", seed.ID,
				"error", err,
			)
			expansion = nil
		}
		expansion = filterByDate(expansion, q)
	}

	merged := Dedupe(append(slices.Clip(primary), expansion...))
	Rank(merged)
	return merged, nil
}

// Dedupe keeps the first occurrence of each movie ID, preserving order.
func Dedupe(movies []domain.Movie) []domain.Movie {
	seen := make(map[int]struct{}, len(movies))
	out := make([]domain.Movie, 0, len(movies))
	for _, m := range movies {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Rank sorts movies by rating, highest first, in place. Equal ratings keep
// their relative order and a missing rating ranks as 0.
func Rank(movies []domain.Movie) {
	slices.SortStableFunc(movies, func(a, b domain.Movie) int {
		ra, rb := a.RatingOrZero(), b.RatingOrZero()
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		default:
			return 0
		}
	})
}

// filterByDate applies the inclusive release-date window when q has a bound.
// Movies without a parseable release date are dropped.
func filterByDate(movies []domain.Movie, q domain.SearchQuery) []domain.Movie {
	if !q.HasDateBounds() {
		return movies
	}
	lo, hi := MinReleaseDate, MaxReleaseDate
	if q.StartDate != nil {
		lo = *q.StartDate
	}
	if q.EndDate != nil {
		hi = *q.EndDate
	}

	out := make([]domain.Movie, 0, len(movies))
	for _, m := range movies {
		released, ok := m.Released()
		if !ok || released.Before(lo) || released.After(hi) {
			continue
		}
		out = append(out, m)
	}
	return out
}
