package store

import "github.com/cinefinder/cinefinder-server/internal/domain"

// Key prefixes. Every record type lives under its own prefix.
const (
	favoritePrefix    = "fav:"
	searchStatePrefix = "searchstate:"
)

func favoriteKey(userID string, movieID int) []byte {
	return []byte(favoritePrefix + domain.FavoriteKey(userID, movieID))
}

// favoriteUserPrefix selects all favorites of one user. User IDs never
// contain '_' so "fav:u1_" cannot match "fav:u10_...".
func favoriteUserPrefix(userID string) []byte {
	return []byte(favoritePrefix + userID + "_")
}

func searchStateKey(clientKey string) []byte {
	return []byte(searchStatePrefix + clientKey)
}
