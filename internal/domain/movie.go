// Package domain holds the core CineFinder types shared by services,
// stores and the API.
package domain

import "time"

// PosterBaseURL is prefixed to catalog poster paths.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// PosterPlaceholderURL is returned when a movie has no poster.
const PosterPlaceholderURL = "https://placehold.co/500x750?text=No+Poster"

// Movie is an immutable snapshot of a catalog entry.
type Movie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	PosterPath  string   `json:"poster_path,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	GenreIDs    []int    `json:"genre_ids,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
}

// RatingOrZero returns the rating, treating a missing one as 0.
func (m Movie) RatingOrZero() float64 {
	if m.Rating == nil {
		return 0
	}
	return *m.Rating
}

// Released parses ReleaseDate. ok is false when it is empty or malformed.
func (m Movie) Released() (t time.Time, ok bool) {
	if m.ReleaseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, m.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PosterURL returns the full poster URL or the placeholder.
func (m Movie) PosterURL() string {
	return PosterURL(m.PosterPath)
}

// PosterURL builds a poster URL from a catalog path.
func PosterURL(path string) string {
	if path == "" {
		return PosterPlaceholderURL
	}
	return PosterBaseURL + path
}

// HasGenre reports whether the movie is tagged with any of ids.
func (m Movie) HasGenre(ids []int) bool {
	for _, g := range m.GenreIDs {
		for _, want := range ids {
			if g == want {
				return true
			}
		}
	}
	return false
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full detail view of a movie.
type MovieDetails struct {
	Movie
	Tagline   string  `json:"tagline,omitempty"`
	Genres    []Genre `json:"genres,omitempty"`
	VoteCount int     `json:"vote_count"`
}

// SearchQuery is a user search with optional inclusive date bounds.
// Bounds are civil dates at UTC midnight; StartDate may follow EndDate.
type SearchQuery struct {
	Text      string
	StartDate *time.Time
	EndDate   *time.Time
}

// HasDateBounds reports whether either bound is set.
func (q SearchQuery) HasDateBounds() bool {
	return q.StartDate != nil || q.EndDate != nil
}

// Float returns a pointer to v. Handy for ratings in literals.
func Float(v float64) *float64 { return &v }
