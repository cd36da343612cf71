package searchstate

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

// Service records searches and filter changes. Failures are logged and
// swallowed: losing the state only costs the user a retyped query.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service over st.
func NewService(st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

// Load returns the user's state, or a zero state on a miss or failure.
func (s *Service) Load(ctx context.Context, userID string) *domain.SearchState {
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load search state", "user_id", userID, "error", err)
		state = &domain.SearchState{}
	}
	return normalized(state)
}

// RecordSearch saves a finished search and keeps the current filters.
func (s *Service) RecordSearch(ctx context.Context, userID string, q domain.SearchQuery, results []domain.Movie) {
	state := s.Load(ctx, userID)
	state.Query = q.Text
	state.StartDate = formatDate(q.StartDate)
	state.EndDate = formatDate(q.EndDate)
	state.Results = slices.Clone(results)
	s.save(ctx, userID, state)
}

// RecordFilters saves a filter change and keeps the rest of the state.
func (s *Service) RecordFilters(ctx context.Context, userID string, f domain.FilterState) *domain.SearchState {
	state := s.Load(ctx, userID)
	state.Filters = domain.FilterState{Genres: slices.Clone(f.Genres), MinRating: f.MinRating}
	s.save(ctx, userID, state)
	return normalized(state)
}

func (s *Service) save(ctx context.Context, userID string, state *domain.SearchState) {
	state.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, userID, state); err != nil {
		s.logger.Warn("failed to save search state", "user_id", userID, "error", err)
	}
}

// normalized replaces nil slices so the state always encodes as arrays.
func normalized(state *domain.SearchState) *domain.SearchState {
	if state.Results == nil {
		state.Results = []domain.Movie{}
	}
	if state.Filters.Genres == nil {
		state.Filters.Genres = []int{}
	}
	return state
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
