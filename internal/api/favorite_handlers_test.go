package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func favoriteIDs(favs []FavoriteResponse) []int {
	ids := make([]int, len(favs))
	for i, f := range favs {
		ids[i] = f.ID
	}
	return ids
}

func TestFavorites_AddListRemove(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signUp(t, "fan@example.com")

	resp := ts.api.Get("/api/v1/favorites", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, decodeData[[]FavoriteResponse](t, resp))

	resp = ts.api.Put("/api/v1/favorites/603", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	added := decodeData[FavoriteResponse](t, resp)
	assert.Equal(t, "The Matrix", added.Title)
	assert.Equal(t, []int{28, 878}, added.GenreIDs)
	assert.False(t, added.AddedAt.IsZero())

	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/favorites/1001", bearer).Code)

	resp = ts.api.Get("/api/v1/favorites", bearer)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []int{1001, 603}, favoriteIDs(decodeData[[]FavoriteResponse](t, resp)), "newest first")

	resp = ts.api.Get("/api/v1/favorites/603", bearer)
	require.Equal(t, http.StatusOK, resp.Code)
	status := decodeData[FavoriteStatus](t, resp)
	assert.True(t, status.IsFavorite)
	assert.Equal(t, 603, status.MovieID)

	resp = ts.api.Delete("/api/v1/favorites/603", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Favorite removed", decodeData[MessageResponse](t, resp).Message)

	// Removing again is not an error.
	assert.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/favorites/603", bearer).Code)

	resp = ts.api.Get("/api/v1/favorites/603", bearer)
	assert.False(t, decodeData[FavoriteStatus](t, resp).IsFavorite)
}

func TestFavorites_AreScopedPerUser(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.signUp(t, "alice@example.com")
	bob := ts.signUp(t, "bob@example.com")

	require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/favorites/603", alice).Code)

	resp := ts.api.Get("/api/v1/favorites", bob)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeData[[]FavoriteResponse](t, resp))

	resp = ts.api.Get("/api/v1/favorites/603", bob)
	assert.False(t, decodeData[FavoriteStatus](t, resp).IsFavorite)
}

func TestFavorites_Toggle(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signUp(t, "toggle@example.com")

	resp := ts.api.Post("/api/v1/favorites/604/toggle", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	status := decodeData[FavoriteStatus](t, resp)
	assert.True(t, status.IsFavorite)
	require.NotNil(t, status.Favorite)
	assert.Equal(t, "The Matrix Reloaded", status.Favorite.Title)

	detailCalls := ts.catalog.count("details")

	resp = ts.api.Post("/api/v1/favorites/604/toggle", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	status = decodeData[FavoriteStatus](t, resp)
	assert.False(t, status.IsFavorite)
	assert.Nil(t, status.Favorite)
	assert.Equal(t, detailCalls, ts.catalog.count("details"), "removal must not hit the catalog")
}

func TestFavorites_Errors(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signUp(t, "errors@example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		headers    []any
		wantStatus int
		wantCode   string
	}{
		{"list anonymous", http.MethodGet, "/api/v1/favorites", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"add anonymous", http.MethodPut, "/api/v1/favorites/603", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"toggle anonymous", http.MethodPost, "/api/v1/favorites/603/toggle", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"add unknown movie", http.MethodPut, "/api/v1/favorites/999999", []any{bearer}, http.StatusNotFound, "NOT_FOUND"},
		{"add non-positive id", http.MethodPut, "/api/v1/favorites/-4", []any{bearer}, http.StatusBadRequest, "VALIDATION"},
		{"list bad rating", http.MethodGet, "/api/v1/favorites?min_rating=-1", []any{bearer}, http.StatusBadRequest, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Do(tt.method, tt.path, tt.headers...)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
		})
	}
}

func TestFavorites_ListFilters(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signUp(t, "filters@example.com")

	for _, id := range []string{"603", "605", "1001"} {
		require.Equal(t, http.StatusOK, ts.api.Put("/api/v1/favorites/"+id, bearer).Code)
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{"unfiltered", "", []int{1001, 605, 603}},
		{"min rating", "?min_rating=7.5", []int{1001, 603}},
		{"genre", "?genres=28", []int{605, 603}},
		{"genre and rating", "?genres=28&min_rating=8", []int{603}},
		{"full-text title", "?q=matrix", []int{605, 603}},
		{"full-text overview", "?q=memory", []int{1001}},
		{"full-text with filter", "?q=matrix&min_rating=8", []int{603}},
		{"full-text no match", "?q=casablanca", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/favorites"+tt.query, bearer)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
			assert.ElementsMatch(t, tt.wantIDs, favoriteIDs(decodeData[[]FavoriteResponse](t, resp)))
		})
	}
}
