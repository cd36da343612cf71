// Package search is a full-text index over users' favorite snapshots.
package search

import (
	"strconv"

	"github.com/cinefinder/cinefinder-server/internal/domain"
	"github.com/cinefinder/cinefinder-server/internal/normalize"
)

// FavoriteDocument is the indexed form of a FavoriteEntry.
// Text fields hold folded text so "Amélie" matches "amelie".
type FavoriteDocument struct {
	ID       string // favorite key
	UserID   string
	MovieID  int
	Title    string
	Overview string
	GenreIDs []int
	Rating   float64
	Year     int
	AddedAt  int64 // unix seconds
}

// NewFavoriteDocument builds a document from an entry.
func NewFavoriteDocument(e *domain.FavoriteEntry) *FavoriteDocument {
	doc := &FavoriteDocument{
		ID:       e.Key(),
		UserID:   e.UserID,
		MovieID:  e.MovieID,
		Title:    normalize.Fold(e.Title),
		Overview: normalize.Fold(e.Overview),
		GenreIDs: e.GenreIDs,
		AddedAt:  e.AddedAt.Unix(),
	}
	if e.Rating != nil {
		doc.Rating = *e.Rating
	}
	if t, ok := e.Movie().Released(); ok {
		doc.Year = t.Year()
	}
	return doc
}

// ToMap converts the document to the field names used by the mapping.
func (d *FavoriteDocument) ToMap() map[string]any {
	genres := make([]string, len(d.GenreIDs))
	for i, g := range d.GenreIDs {
		genres[i] = strconv.Itoa(g)
	}

	m := map[string]any{
		"user_id":   d.UserID,
		"movie_id":  float64(d.MovieID),
		"title":     d.Title,
		"overview":  d.Overview,
		"genre_ids": genres,
		"rating":    d.Rating,
		"added_at":  float64(d.AddedAt),
	}
	if d.Year > 0 {
		m["year"] = float64(d.Year)
	}
	return m
}
