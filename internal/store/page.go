package store

// Pagination limits for list queries.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageRequest describes an offset-paginated list request.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize clamps the request to sane bounds, applying defaults for
// unset values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized request.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// Page holds one page of results plus the counters the API layer needs to
// build pagination metadata.
type Page[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
}

// LastPage returns the number of the final page, which is at least 1 even
// for empty result sets.
func (p Page[T]) LastPage() int {
	if p.Total <= 0 || p.PerPage <= 0 {
		return 1
	}
	last := (p.Total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	return last
}

// From returns the 1-based index of the first item on this page,
// or 0 when the page is empty.
func (p Page[T]) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

// To returns the 1-based index of the last item on this page,
// or 0 when the page is empty.
func (p Page[T]) To() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + len(p.Items)
}
