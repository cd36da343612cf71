package discovery

// PageSize is the number of results per page.
const PageSize = 20

// Page is one slice of a result list.
type Page[T any] struct {
	Items        []T `json:"items"`
	Page         int `json:"page"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// Paginate returns page (1-based) of items. Pages below 1 are treated as 1;
// pages past the end return no items but still report the totals.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = PageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Items:        []T{},
		Page:         page,
		TotalPages:   (total + size - 1) / size,
		TotalResults: total,
	}

	// Checked before multiplying so a huge page cannot overflow start.
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * size
	end := min(start+size, total)
	p.Items = items[start:end]
	return p
}
