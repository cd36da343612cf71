package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinefinder/cinefinder-server/internal/discovery"
	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/logger"
	"github.com/cinefinder/cinefinder-server/internal/validation"
)

func (s *Server) registerMovieRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/search",
		Summary:     "Search movies",
		Description: "Searches the catalog, expands with titles similar to the best match, ranks by rating and applies filters. Signed-in searches are remembered.",
		Tags:        []string{"Movies"},
	}, s.handleSearchMovies)

	huma.Register(s.api, huma.Operation{
		OperationID: "movieSuggestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/suggestions",
		Summary:     "Movie suggestions",
		Description: "Returns the first few catalog matches for partial input. Catalog failures yield an empty list.",
		Tags:        []string{"Movies"},
	}, s.handleMovieSuggestions)

	huma.Register(s.api, huma.Operation{
		OperationID: "popularMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/popular",
		Summary:     "Popular movies",
		Description: "Returns the first page of currently popular movies",
		Tags:        []string{"Movies"},
	}, s.handlePopularMovies)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMovie",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{id}",
		Summary:     "Get movie",
		Description: "Returns movie details. Signed-in callers also get is_favorite.",
		Tags:        []string{"Movies"},
	}, s.handleGetMovie)

	huma.Register(s.api, huma.Operation{
		OperationID: "similarMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/{id}/similar",
		Summary:     "Similar movies",
		Description: "Returns the catalog's similar titles for a movie",
		Tags:        []string{"Movies"},
	}, s.handleSimilarMovies)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns the catalog's movie genre vocabulary",
		Tags:        []string{"Movies"},
	}, s.handleListGenres)
}

// === DTOs ===

// MovieResponse is a movie in API responses.
type MovieResponse struct {
	ID          int      `json:"id" doc:"Catalog movie ID"`
	Title       string   `json:"title" doc:"Title"`
	PosterPath  string   `json:"poster_path,omitempty" doc:"Catalog poster path"`
	PosterURL   string   `json:"poster_url" doc:"Poster image URL, or a placeholder"`
	ReleaseDate string   `json:"release_date,omitempty" doc:"Release date (YYYY-MM-DD)"`
	Rating      *float64 `json:"rating,omitempty" doc:"Average rating 0-10"`
	GenreIDs    []int    `json:"genre_ids,omitempty" doc:"Genre IDs"`
	Overview    string   `json:"overview,omitempty" doc:"Plot overview"`
	Runtime     int      `json:"runtime,omitempty" doc:"Runtime in minutes"`
}

func toMovieResponse(m domain.Movie) MovieResponse {
	return MovieResponse{
		ID:          m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		PosterURL:   m.PosterURL(),
		ReleaseDate: m.ReleaseDate,
		Rating:      m.Rating,
		GenreIDs:    m.GenreIDs,
		Overview:    m.Overview,
		Runtime:     m.Runtime,
	}
}

func toMovieResponses(movies []domain.Movie) []MovieResponse {
	out := make([]MovieResponse, len(movies))
	for i, m := range movies {
		out[i] = toMovieResponse(m)
	}
	return out
}

// MovieDetailResponse is the detail view of a movie.
type MovieDetailResponse struct {
	MovieResponse
	Tagline    string         `json:"tagline,omitempty" doc:"Tagline"`
	Genres     []domain.Genre `json:"genres,omitempty" doc:"Genres with names"`
	VoteCount  int            `json:"vote_count" doc:"Number of ratings"`
	IsFavorite *bool          `json:"is_favorite,omitempty" doc:"Whether the caller saved this movie; omitted when anonymous"`
}

// MovieListOutput wraps a movie list.
type MovieListOutput struct {
	Body []MovieResponse
}

// SearchMoviesInput contains search parameters.
type SearchMoviesInput struct {
	Authorization string  `header:"Authorization"`
	Query         string  `query:"q" validate:"required,max=200" doc:"Search text"`
	StartDate     string  `query:"start_date" validate:"civildate" doc:"Earliest release date, inclusive (YYYY-MM-DD)"`
	EndDate       string  `query:"end_date" validate:"civildate" doc:"Latest release date, inclusive (YYYY-MM-DD)"`
	Genres        []int   `query:"genres" doc:"Keep movies with any of these genre IDs"`
	MinRating     float64 `query:"min_rating" validate:"gte=0,lte=10" doc:"Minimum rating, inclusive"`
	Page          int     `query:"page" validate:"gte=0,lte=1000" doc:"Page number, 1-based (default 1, at most 1000)"`
}

// MoviePage is one page of results.
type MoviePage struct {
	Items        []MovieResponse `json:"items" doc:"Movies on this page"`
	Page         int             `json:"page" doc:"Page number"`
	TotalPages   int             `json:"total_pages" doc:"Total pages"`
	TotalResults int             `json:"total_results" doc:"Total movies after filtering"`
}

// MoviePageOutput wraps a movie page.
type MoviePageOutput struct {
	Body MoviePage
}

// SuggestionsInput contains partial search text.
type SuggestionsInput struct {
	Query string `query:"q" doc:"Partial search text"`
}

// MovieIDInput identifies a movie.
type MovieIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int    `path:"id" minimum:"1" doc:"Catalog movie ID"`
}

// MovieDetailOutput wraps movie details.
type MovieDetailOutput struct {
	Body MovieDetailResponse
}

// GenreListOutput wraps the genre vocabulary.
type GenreListOutput struct {
	Body []domain.Genre
}

// === Handlers ===

func (s *Server) handleSearchMovies(ctx context.Context, input *SearchMoviesInput) (*MoviePageOutput, error) {
	if err := s.services.Validator.Validate(input); err != nil {
		return nil, err
	}

	q := domain.SearchQuery{
		Text:      input.Query,
		StartDate: parseDate(input.StartDate),
		EndDate:   parseDate(input.EndDate),
	}
	results, err := s.services.Composer.Compose(ctx, q)
	userID := optionalUserID(ctx)
	if err != nil {
		// The failed query replaces the previous one with an empty result list.
		if userID != "" {
			s.services.SearchState.RecordSearch(ctx, userID, q, nil)
		}
		return nil, err
	}

	if userID != "" {
		s.services.SearchState.RecordSearch(ctx, userID, q, results)
	}

	filtered := discovery.Filter(results, domain.FilterState{Genres: input.Genres, MinRating: input.MinRating})
	page := discovery.Paginate(filtered, input.Page, discovery.PageSize)

	return &MoviePageOutput{
		Body: MoviePage{
			Items:        toMovieResponses(page.Items),
			Page:         page.Page,
			TotalPages:   page.TotalPages,
			TotalResults: page.TotalResults,
		},
	}, nil
}

func (s *Server) handleMovieSuggestions(ctx context.Context, input *SuggestionsInput) (*MovieListOutput, error) {
	return &MovieListOutput{Body: toMovieResponses(s.services.Suggester.Suggest(ctx, input.Query))}, nil
}

func (s *Server) handlePopularMovies(ctx context.Context, _ *struct{}) (*MovieListOutput, error) {
	movies, err := s.services.Catalog.PopularMovies(ctx)
	if err != nil {
		return nil, catalogError(err)
	}
	return &MovieListOutput{Body: toMovieResponses(movies)}, nil
}

func (s *Server) handleGetMovie(ctx context.Context, input *MovieIDInput) (*MovieDetailOutput, error) {
	details, err := s.services.Catalog.MovieDetails(ctx, input.ID)
	if err != nil {
		return nil, catalogError(err)
	}

	resp := MovieDetailResponse{
		MovieResponse: toMovieResponse(details.Movie),
		Tagline:       details.Tagline,
		Genres:        details.Genres,
		VoteCount:     details.VoteCount,
	}

	if userID := optionalUserID(ctx); userID != "" {
		saved, err := s.services.Favorites.IsFavorite(ctx, userID, input.ID)
		if err != nil {
			// Details are still useful without the favorite flag.
			logger.FromContext(ctx, s.logger).WithError(err).Warn("favorite lookup failed", "movie_id", input.ID)
		} else {
			resp.IsFavorite = &saved
		}
	}

	return &MovieDetailOutput{Body: resp}, nil
}

func (s *Server) handleSimilarMovies(ctx context.Context, input *MovieIDInput) (*MovieListOutput, error) {
	movies, err := s.services.Catalog.SimilarMovies(ctx, input.ID)
	if err != nil {
		return nil, catalogError(err)
	}
	return &MovieListOutput{Body: toMovieResponses(movies)}, nil
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*GenreListOutput, error) {
	genres, err := s.services.Catalog.Genres(ctx)
	if err != nil {
		return nil, catalogError(err)
	}
	return &GenreListOutput{Body: genres}, nil
}

// parseDate parses an already validated civil date. Empty means unbounded.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
