package domain

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

// Normalize replaces out-of-range values with the defaults.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// TotalPages is the number of pages needed to hold total items.
func (p Page) TotalPages(total int64) int {
	limit := int64(p.Normalize().Limit)
	return int((total + limit - 1) / limit)
}

// Paged is a generic list envelope.
type Paged[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}
