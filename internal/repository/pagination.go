package repository

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Page represents a simple limit/offset window for listing operations.
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies the default limit and clamps out-of-range values.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Window slices items according to p. Memory stores use it after sorting.
func Window[T any](items []T, p Page) []T {
	p = p.Normalize()
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// PageResult carries a slice of items and the total count matching the query.
// I return the total so clients can compute pagination without an extra round trip.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
