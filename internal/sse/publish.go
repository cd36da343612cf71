package sse

import "github.com/cinefinder/cinefinder-server/internal/domain"

// SessionChanged forwards an identity transition to the user's streams.
// It has the shape of an identity listener.
func (m *Manager) SessionChanged(evt domain.SessionEvent) {
	m.Emit(NewSessionChangedEvent(evt))
}

// PublishSuggestions delivers suggestions for query to userID.
func (m *Manager) PublishSuggestions(userID, query string, movies []domain.Movie) {
	m.Emit(NewSuggestionsEvent(userID, query, movies))
}

// FavoriteChanged tells userID's streams that movieID was added or removed.
func (m *Manager) FavoriteChanged(userID string, movieID int, isFavorite bool) {
	m.Emit(NewFavoritesChangedEvent(userID, movieID, isFavorite))
}
