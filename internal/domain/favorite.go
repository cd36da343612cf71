package domain

import (
	"strconv"
	"time"
)

// FavoriteEntry is a user's saved movie with a snapshot taken at add time.
// The snapshot is never refreshed from the catalog.
type FavoriteEntry struct {
	UserID      string    `json:"user_id" bson:"userId"`
	MovieID     int       `json:"movie_id" bson:"movieId"`
	Title       string    `json:"title" bson:"title"`
	PosterPath  string    `json:"poster_path,omitempty" bson:"poster_path,omitempty"`
	Rating      *float64  `json:"rating,omitempty" bson:"vote_average,omitempty"`
	GenreIDs    []int     `json:"genre_ids,omitempty" bson:"genre_ids,omitempty"`
	Overview    string    `json:"overview,omitempty" bson:"overview,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty" bson:"release_date,omitempty"`
	AddedAt     time.Time `json:"added_at" bson:"addedAt"`
}

// FavoriteKey returns the composite key "userID_movieID". User IDs are
// generated without '_' so the key is unambiguous.
func FavoriteKey(userID string, movieID int) string {
	return userID + "_" + strconv.Itoa(movieID)
}

// NewFavoriteEntry snapshots m for userID.
func NewFavoriteEntry(userID string, m Movie, now time.Time) *FavoriteEntry {
	return &FavoriteEntry{
		UserID:      userID,
		MovieID:     m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		Rating:      m.Rating,
		GenreIDs:    append([]int(nil), m.GenreIDs...),
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		AddedAt:     now.UTC(),
	}
}

// Key returns the entry's composite key.
func (f *FavoriteEntry) Key() string {
	return FavoriteKey(f.UserID, f.MovieID)
}

// Movie returns the snapshot as a Movie so it can be filtered like search results.
func (f *FavoriteEntry) Movie() Movie {
	return Movie{
		ID:          f.MovieID,
		Title:       f.Title,
		PosterPath:  f.PosterPath,
		ReleaseDate: f.ReleaseDate,
		Rating:      f.Rating,
		GenreIDs:    f.GenreIDs,
		Overview:    f.Overview,
	}
}
