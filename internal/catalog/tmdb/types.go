package tmdb

import "github.com/cinefinder/cinefinder-server/internal/domain"

// Raw API response types.

type rawMovie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	PosterPath  *string  `json:"poster_path"`
	ReleaseDate string   `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
	GenreIDs    []int    `json:"genre_ids"`
	Genres      []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Overview string `json:"overview"`
	Runtime  *int   `json:"runtime"`
	Tagline  string `json:"tagline"`
}

type rawPage struct {
	Page         int        `json:"page"`
	Results      []rawMovie `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

type rawGenreList struct {
	Genres []domain.Genre `json:"genres"`
}

func (r *rawMovie) toMovie() domain.Movie {
	m := domain.Movie{
		ID:          r.ID,
		Title:       r.Title,
		ReleaseDate: r.ReleaseDate,
		Rating:      r.VoteAverage,
		Overview:    r.Overview,
	}
	if r.PosterPath != nil {
		m.PosterPath = *r.PosterPath
	}
	if r.Runtime != nil {
		m.Runtime = *r.Runtime
	}
	switch {
	case len(r.GenreIDs) > 0:
		m.GenreIDs = r.GenreIDs
	case len(r.Genres) > 0:
		m.GenreIDs = make([]int, len(r.Genres))
		for i, g := range r.Genres {
			m.GenreIDs[i] = g.ID
		}
	}
	return m
}

func (r *rawMovie) toDetails() *domain.MovieDetails {
	d := &domain.MovieDetails{
		Movie:     r.toMovie(),
		Tagline:   r.Tagline,
		VoteCount: r.VoteCount,
	}
	if len(r.Genres) > 0 {
		d.Genres = make([]domain.Genre, len(r.Genres))
		for i, g := range r.Genres {
			d.Genres[i] = domain.Genre{ID: g.ID, Name: g.Name}
		}
	}
	return d
}

func toMovies(raw []rawMovie) []domain.Movie {
	out := make([]domain.Movie, 0, len(raw))
	for i := range raw {
		out = append(out, raw[i].toMovie())
	}
	return out
}
