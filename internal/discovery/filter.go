package discovery

import "github.com/cinefinder/cinefinder-server/internal/domain"

// Filter returns the movies matching f, preserving order. The input is not
// modified. A missing rating only passes when MinRating is not positive, and
// a movie without genres never matches a genre restriction.
func Filter(movies []domain.Movie, f domain.FilterState) []domain.Movie {
	out := make([]domain.Movie, 0, len(movies))
	for _, m := range movies {
		if Matches(m, f) {
			out = append(out, m)
		}
	}
	return out
}

// Matches reports whether a single movie passes f.
func Matches(m domain.Movie, f domain.FilterState) bool {
	if m.Rating == nil {
		if f.MinRating > 0 {
			return false
		}
	} else if *m.Rating < f.MinRating {
		return false
	}
	return len(f.Genres) == 0 || m.HasGenre(f.Genres)
}
