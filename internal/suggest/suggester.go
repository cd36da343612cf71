package suggest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/normalize"
)

const (
	// Limit is the number of suggestions returned.
	Limit = 5

	fetchTimeout = 10 * time.Second
)

// Catalog is the search the suggester draws from.
type Catalog interface {
	SearchMovies(ctx context.Context, query string) ([]domain.Movie, error)
}

// Publisher delivers debounced suggestions to a user.
type Publisher interface {
	PublishSuggestions(userID, query string, movies []domain.Movie)
}

// Suggester serves immediate suggestions and debounced per-user ones.
type Suggester struct {
	catalog   Catalog
	publisher Publisher
	delay     time.Duration
	logger    *slog.Logger

	mu         sync.Mutex
	debouncers map[string]*Debouncer
	closed     bool
	inflight   sync.WaitGroup
}

// NewSuggester creates a suggester with the default 300ms window.
func NewSuggester(catalog Catalog, publisher Publisher, logger *slog.Logger) *Suggester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Suggester{
		catalog:    catalog,
		publisher:  publisher,
		delay:      DefaultDelay,
		logger:     logger,
		debouncers: make(map[string]*Debouncer),
	}
}

// Suggest returns the first Limit catalog matches for text. Blank text
// and catalog errors both yield an empty list.
func (s *Suggester) Suggest(ctx context.Context, text string) []domain.Movie {
	q := normalize.Query(text)
	if q == "" {
		return []domain.Movie{}
	}

	movies, err := s.catalog.SearchMovies(ctx, q)
	if err != nil {
		s.logger.Debug("suggestion fetch failed", "error", err)
		return []domain.Movie{}
	}
	if len(movies) > Limit {
		movies = movies[:Limit]
	}
	return movies
}

// Input records a keystroke for userID. When the window closes the
// suggestions are fetched and published. Responses are published in
// arrival order, so a slow earlier fetch can overwrite a newer one.
func (s *Suggester) Input(userID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	d, ok := s.debouncers[userID]
	if !ok {
		d = NewDebouncer(s.delay, func(q string) { s.fetchAndPublish(userID, q) })
		s.debouncers[userID] = d
	}
	d.Trigger(text)
}

// Forget drops userID's debouncer, cancelling any pending fire.
func (s *Suggester) Forget(userID string) {
	s.mu.Lock()
	d, ok := s.debouncers[userID]
	delete(s.debouncers, userID)
	s.mu.Unlock()

	if ok {
		d.Stop()
	}
}

// SessionChanged forgets users as they sign out.
func (s *Suggester) SessionChanged(evt domain.SessionEvent) {
	if evt.Type == domain.SessionSignedOut {
		s.Forget(evt.Session.UserID)
	}
}

// Close stops every debouncer and waits for in-flight fetches.
func (s *Suggester) Close() {
	s.mu.Lock()
	s.closed = true
	for id, d := range s.debouncers {
		d.Stop()
		delete(s.debouncers, id)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

func (s *Suggester) fetchAndPublish(userID, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	movies := s.Suggest(ctx, text)
	s.publisher.PublishSuggestions(userID, normalize.Query(text), movies)
}
