package catalog

const (
	// DefaultPageSize applies when the caller requests size 0.
	DefaultPageSize = 50
	// MaxPageSize caps a single page.
	MaxPageSize = 200
)

// PageRequest is a zero-based pagination request.
type PageRequest struct {
	Page int
	Size int
	Sort SortKey
}

// Clamp normalises the request: size 0 defaults, size bounded to
// [1, MaxPageSize], negative pages floored at 0.
func (r PageRequest) Clamp() PageRequest {
	size := r.Size
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := r.Page
	if page < 0 {
		page = 0
	}
	return PageRequest{Page: page, Size: size, Sort: r.Sort.orDefault()}
}

// Offset returns the row offset of the clamped request.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// PageResult wraps one page of items with the total match count.
type PageResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// NewPageResult builds a PageResult echoing the clamped page and size.
func NewPageResult[T any](items []T, total int64, page, size int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Page: page, Size: size}
}

// Pages derives the page count, never below 1.
func (p PageResult[T]) Pages() int64 {
	if p.Size <= 0 {
		return 1
	}
	pages := (p.Total + int64(p.Size) - 1) / int64(p.Size)
	if pages < 1 {
		pages = 1
	}
	return pages
}

// HasNext reports whether a following page exists.
func (p PageResult[T]) HasNext() bool {
	return int64(p.Page)+1 < p.Pages()
}

// HasPrev reports whether a preceding page exists.
func (p PageResult[T]) HasPrev() bool {
	return p.Page > 0
}

// PaginateSlice pages an in-memory list with the shared clamping rules.
func PaginateSlice[T any](items []T, req PageRequest) PageResult[T] {
	req = req.Clamp()
	total := len(items)
	from := req.Offset()
	if from > total {
		from = total
	}
	to := from + req.Size
	if to > total {
		to = total
	}
	return NewPageResult(items[from:to], int64(total), req.Page, req.Size)
}
