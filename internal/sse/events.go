// Package sse streams per-user events to browsers over Server-Sent Events.
package sse

import (
	"time"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

// EventType names an SSE event.
type EventType string

const (
	// EventSessionChanged is sent when the user signs in or out.
	EventSessionChanged EventType = "session.changed"
	// EventSuggestionsUpdated carries debounced search suggestions.
	EventSuggestionsUpdated EventType = "suggestions.updated"
	// EventFavoritesChanged is sent when a favorite is added or removed.
	EventFavoritesChanged EventType = "favorites.changed"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
)

// Event is an SSE event. Data is marshaled as a JSON object.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID limits delivery to that user's clients. Empty broadcasts.
	UserID string `json:"-"`
}

// SessionChangedEventData is the payload of session.changed.
type SessionChangedEventData struct {
	Type      domain.SessionEventType `json:"type"`
	SessionID string                  `json:"session_id"`
	Email     string                  `json:"email"`
}

// SuggestionsEventData is the payload of suggestions.updated.
type SuggestionsEventData struct {
	Query       string         `json:"query"`
	Suggestions []domain.Movie `json:"suggestions"`
}

// FavoritesChangedEventData is the payload of favorites.changed.
type FavoritesChangedEventData struct {
	MovieID    int  `json:"movie_id"`
	IsFavorite bool `json:"is_favorite"`
}

// HeartbeatEventData is the payload of heartbeat.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSessionChangedEvent builds a session.changed event for the session's user.
func NewSessionChangedEvent(evt domain.SessionEvent) Event {
	return Event{
		Type:      EventSessionChanged,
		Timestamp: time.Now(),
		UserID:    evt.Session.UserID,
		Data: SessionChangedEventData{
			Type:      evt.Type,
			SessionID: evt.Session.ID,
			Email:     evt.Session.Email,
		},
	}
}

// NewSuggestionsEvent builds a suggestions.updated event for userID.
func NewSuggestionsEvent(userID, query string, movies []domain.Movie) Event {
	if movies == nil {
		movies = []domain.Movie{}
	}
	return Event{
		Type:      EventSuggestionsUpdated,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      SuggestionsEventData{Query: query, Suggestions: movies},
	}
}

// NewFavoritesChangedEvent builds a favorites.changed event for userID.
func NewFavoritesChangedEvent(userID string, movieID int, isFavorite bool) Event {
	return Event{
		Type:      EventFavoritesChanged,
		Timestamp: time.Now(),
		UserID:    userID,
		Data:      FavoritesChangedEventData{MovieID: movieID, IsFavorite: isFavorite},
	}
}

// NewHeartbeatEvent builds a heartbeat.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
