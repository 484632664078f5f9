package types

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination clamps page and limit to sane values.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasNext reports whether another page follows for the given total.
func (p Pagination) HasNext(total int64) bool {
	return int64(p.Page*p.Limit) < total
}

// Paginated is one page of results plus the total count.
type Paginated[T any] struct {
	Count int64
	Items []T
}

// Page is the JSON envelope of a paginated response.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
