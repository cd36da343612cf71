package discovery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

func TestFilter(t *testing.T) {
	f := domain.Float
	movies := []domain.Movie{
		{ID: 1, Rating: f(8.5), GenreIDs: []int{28, 878}},
		{ID: 2, Rating: f(6.0), GenreIDs: []int{35}},
		{ID: 3, Rating: nil, GenreIDs: []int{28}},
		{ID: 4, Rating: f(7.0), GenreIDs: nil},
		{ID: 5, Rating: f(7.0), GenreIDs: []int{18}},
	}

	tests := []struct {
		name    string
		filter  domain.FilterState
		wantIDs []int
	}{
		{"zero filter keeps everything", domain.FilterState{}, []int{1, 2, 3, 4, 5}},
		{"min rating is inclusive", domain.FilterState{MinRating: 7}, []int{1, 4, 5}},
		{"missing rating fails positive minimum", domain.FilterState{MinRating: 0.1}, []int{1, 2, 4, 5}},
		{"genre intersection", domain.FilterState{Genres: []int{28, 35}}, []int{1, 2, 3}},
		{"genreless movie never matches genre filter", domain.FilterState{Genres: []int{18}}, []int{5}},
		{"both constraints", domain.FilterState{Genres: []int{28}, MinRating: 8}, []int{1}},
		{"nothing matches", domain.FilterState{Genres: []int{99}}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIDs, ids(Filter(movies, tt.filter)))
		})
	}
}

func TestFilter_IdempotentAndPure(t *testing.T) {
	f := domain.Float
	movies := []domain.Movie{
		{ID: 1, Rating: f(9), GenreIDs: []int{28}},
		{ID: 2, Rating: f(3), GenreIDs: []int{28}},
		{ID: 3, Rating: f(6), GenreIDs: []int{12}},
	}
	original := append([]domain.Movie(nil), movies...)
	fs := domain.FilterState{Genres: []int{28, 12}, MinRating: 5}

	once := Filter(movies, fs)
	twice := Filter(once, fs)

	assert.Equal(t, once, twice)
	assert.Equal(t, original, movies)
	assert.Equal(t, []int{1, 3}, ids(once))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name      string
		page      int
		wantLen   int
		wantFirst int
		wantPage  int
	}{
		{"first page", 1, 20, 0, 1},
		{"last partial page", 3, 5, 40, 3},
		{"page below one", 0, 20, 0, 1},
		{"past the end", 9, 0, -1, 9},
		{"huge page", 1 << 62, 0, -1, 1 << 62},
		{"max int page", math.MaxInt, 0, -1, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, PageSize)
			assert.Len(t, p.Items, tt.wantLen)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, 45, p.TotalResults)
			if tt.wantFirst >= 0 {
				assert.Equal(t, tt.wantFirst, p.Items[0])
			}
		})
	}

	empty := Paginate([]int{}, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, Paginate([]int{}, 5, PageSize).Items)
}
