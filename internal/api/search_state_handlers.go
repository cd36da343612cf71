package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

func (s *Server) registerSearchStateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSearchState",
		Method:      http.MethodGet,
		Path:        "/api/v1/search-state",
		Summary:     "Last search state",
		Description: "Returns the caller's last query, date bounds, results and filters. Unknown callers get an empty state.",
		Tags:        []string{"Search State"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSearchState)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSearchFilters",
		Method:      http.MethodPut,
		Path:        "/api/v1/search-state/filters",
		Summary:     "Update filters",
		Description: "Records a filter change and returns the updated state",
		Tags:        []string{"Search State"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSearchFilters)
}

// === DTOs ===

// SearchStateResponse is the remembered search.
type SearchStateResponse struct {
	Query     string             `json:"query" doc:"Last query text"`
	StartDate string             `json:"start_date,omitempty" doc:"Last start date bound"`
	EndDate   string             `json:"end_date,omitempty" doc:"Last end date bound"`
	Results   []MovieResponse    `json:"results" doc:"Last unfiltered results"`
	Filters   domain.FilterState `json:"filters" doc:"Current filters"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty" doc:"When the state last changed"`
}

func toSearchStateResponse(st *domain.SearchState) SearchStateResponse {
	resp := SearchStateResponse{
		Query:     st.Query,
		StartDate: st.StartDate,
		EndDate:   st.EndDate,
		Results:   toMovieResponses(st.Results),
		Filters:   st.Filters,
	}
	if !st.UpdatedAt.IsZero() {
		t := st.UpdatedAt.UTC()
		resp.UpdatedAt = &t
	}
	return resp
}

// SearchStateOutput wraps the search state.
type SearchStateOutput struct {
	Body SearchStateResponse
}

// FiltersRequest is a filter change.
type FiltersRequest struct {
	Genres    []int   `json:"genres,omitempty" validate:"dive,gt=0" doc:"Genre IDs; empty means all genres"`
	MinRating float64 `json:"min_rating,omitempty" validate:"gte=0,lte=10" doc:"Minimum rating, inclusive"`
}

// UpdateFiltersInput wraps a filter change for Huma.
type UpdateFiltersInput struct {
	Authorization string `header:"Authorization"`
	Body          FiltersRequest
}

// === Handlers ===

func (s *Server) handleGetSearchState(ctx context.Context, _ *AuthenticatedInput) (*SearchStateOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return &SearchStateOutput{Body: toSearchStateResponse(s.services.SearchState.Load(ctx, userID))}, nil
}

func (s *Server) handleUpdateSearchFilters(ctx context.Context, input *UpdateFiltersInput) (*SearchStateOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Validator.Validate(input.Body); err != nil {
		return nil, err
	}

	st := s.services.SearchState.RecordFilters(ctx, userID, domain.FilterState{
		Genres:    input.Body.Genres,
		MinRating: input.Body.MinRating,
	})
	return &SearchStateOutput{Body: toSearchStateResponse(st)}, nil
}
