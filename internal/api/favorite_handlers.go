package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/favorites"
	"github.com/cinefinder/cinefinder-server/internal/normalize"
)

func (s *Server) registerFavoriteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "List favorites",
		Description: "Returns the caller's favorites, newest first. Optional filters use the same rules as search results; q runs a full-text search over the saved snapshots.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFavorite",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites/{movie_id}",
		Summary:     "Is favorite",
		Description: "Reports whether the caller saved a movie",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPut,
		Path:        "/api/v1/favorites/{movie_id}",
		Summary:     "Add favorite",
		Description: "Saves a movie with a snapshot fetched from the catalog. Saving again overwrites the snapshot.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/favorites/{movie_id}",
		Summary:     "Remove favorite",
		Description: "Deletes a saved movie. Removing a movie that is not saved succeeds.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/favorites/{movie_id}/toggle",
		Summary:     "Toggle favorite",
		Description: "Removes the movie if saved, otherwise saves it",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleFavorite)
}

// === DTOs ===

// ListFavoritesInput contains list filters.
type ListFavoritesInput struct {
	Authorization string  `header:"Authorization"`
	Genres        []int   `query:"genres" doc:"Keep favorites with any of these genre IDs"`
	MinRating     float64 `query:"min_rating" validate:"gte=0,lte=10" doc:"Minimum rating, inclusive"`
	Query         string  `query:"q" validate:"max=200" doc:"Full-text search over title and overview"`
}

// FavoriteInput identifies a favorite.
type FavoriteInput struct {
	Authorization string `header:"Authorization"`
	MovieID       int    `path:"movie_id" minimum:"1" doc:"Catalog movie ID"`
}

// FavoriteResponse is a saved movie snapshot.
type FavoriteResponse struct {
	MovieResponse
	AddedAt time.Time `json:"added_at" doc:"When the movie was saved"`
}

func toFavoriteResponse(e *domain.FavoriteEntry) FavoriteResponse {
	return FavoriteResponse{
		MovieResponse: toMovieResponse(e.Movie()),
		AddedAt:       e.AddedAt.UTC(),
	}
}

// FavoriteListOutput wraps a favorites list.
type FavoriteListOutput struct {
	Body []FavoriteResponse
}

// FavoriteOutput wraps one favorite.
type FavoriteOutput struct {
	Body FavoriteResponse
}

// FavoriteStatus reports whether a movie is saved.
type FavoriteStatus struct {
	MovieID    int               `json:"movie_id" doc:"Catalog movie ID"`
	IsFavorite bool              `json:"is_favorite" doc:"Whether the movie is saved"`
	Favorite   *FavoriteResponse `json:"favorite,omitempty" doc:"The saved snapshot, when saved"`
}

// FavoriteStatusOutput wraps a favorite status.
type FavoriteStatusOutput struct {
	Body FavoriteStatus
}

// === Handlers ===

func (s *Server) handleListFavorites(ctx context.Context, input *ListFavoritesInput) (*FavoriteListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Validator.Validate(input); err != nil {
		return nil, err
	}

	filter := domain.FilterState{Genres: input.Genres, MinRating: input.MinRating}

	var entries []*domain.FavoriteEntry
	if normalize.IsBlank(input.Query) {
		entries, err = s.services.Favorites.ListFiltered(ctx, userID, filter)
	} else {
		entries, err = s.services.Favorites.Search(ctx, userID, input.Query)
		entries = favorites.Filter(entries, filter)
	}
	if err != nil {
		return nil, err
	}

	out := make([]FavoriteResponse, len(entries))
	for i, e := range entries {
		out[i] = toFavoriteResponse(e)
	}
	return &FavoriteListOutput{Body: out}, nil
}

func (s *Server) handleGetFavorite(ctx context.Context, input *FavoriteInput) (*FavoriteStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := s.services.Favorites.IsFavorite(ctx, userID, input.MovieID)
	if err != nil {
		return nil, err
	}
	return &FavoriteStatusOutput{Body: FavoriteStatus{MovieID: input.MovieID, IsFavorite: saved}}, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *FavoriteInput) (*FavoriteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.loadSnapshot(input.MovieID)(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.services.Favorites.Add(ctx, userID, m)
	if err != nil {
		return nil, err
	}
	return &FavoriteOutput{Body: toFavoriteResponse(entry)}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *FavoriteInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Favorites.Remove(ctx, userID, input.MovieID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Favorite removed"}}, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *FavoriteInput) (*FavoriteStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	entry, added, err := s.services.Favorites.Toggle(ctx, userID, input.MovieID, s.loadSnapshot(input.MovieID))
	if err != nil {
		return nil, err
	}

	status := FavoriteStatus{MovieID: input.MovieID, IsFavorite: added}
	if entry != nil {
		resp := toFavoriteResponse(entry)
		status.Favorite = &resp
	}
	return &FavoriteStatusOutput{Body: status}, nil
}

// loadSnapshot fetches the catalog details a new favorite is saved with.
func (s *Server) loadSnapshot(movieID int) favorites.SnapshotLoader {
	return func(ctx context.Context) (domain.Movie, error) {
		details, err := s.services.Catalog.MovieDetails(ctx, movieID)
		if err != nil {
			return domain.Movie{}, catalogError(err)
		}
		return details.Movie, nil
	}
}
