package pagination

import "gorm.io/gorm"

const (
	// DefaultLimit is the catalog page size when a limit is not provided.
	DefaultLimit = 12
	// DefaultAdminLimit is the page size for admin listings.
	DefaultAdminLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination block returned alongside listed items.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page is a listing response.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// Normalize clamps page to at least 1 and limit to (0, MaxLimit], using
// fallback when limit is unset.
func (p Params) Normalize(fallback int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if fallback <= 0 {
		fallback = DefaultLimit
	}
	if p.Limit <= 0 {
		p.Limit = fallback
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows skipped before the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Apply scopes a query to the page.
func (p Params) Apply(query *gorm.DB) *gorm.DB {
	return query.Offset(p.Offset()).Limit(p.Limit)
}

// NewMeta builds the pagination block for a total row count.
func NewMeta(p Params, total int64) Meta {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// NewPage pairs items with their pagination block. A nil slice is emitted as [].
func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: NewMeta(p, total)}
}

// Map converts the items of a page while keeping its pagination block.
func Map[T, U any](page Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(page.Items))
	for i, item := range page.Items {
		out[i] = fn(item)
	}
	return Page[U]{Items: out, Pagination: page.Pagination}
}
