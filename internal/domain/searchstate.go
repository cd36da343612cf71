package domain

import "time"

// SearchState is the last search a client made, restored on return visits.
// It is a convenience cache and never a source of truth.
type SearchState struct {
	Query     string      `json:"query"`
	StartDate string      `json:"start_date,omitempty"`
	EndDate   string      `json:"end_date,omitempty"`
	Results   []Movie     `json:"results"`
	Filters   FilterState `json:"filters"`
	UpdatedAt time.Time   `json:"updated_at,omitzero"`
}
