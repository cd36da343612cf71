package domain

// FilterState narrows a result list.
// Empty Genres means no genre restriction; MinRating is inclusive.
type FilterState struct {
	Genres    []int   `json:"genres"`
	MinRating float64 `json:"min_rating"`
}

// IsZero reports whether the filter keeps everything.
func (f FilterState) IsZero() bool {
	return len(f.Genres) == 0 && f.MinRating <= 0
}
