package search

// DefaultPageSize is the number of records on one page.
const DefaultPageSize = 10

// TotalPages returns ceil(n / pageSize), or 0 when there is nothing to page.
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n-1)/pageSize + 1
}

// Paginate returns page (1-based) of items. Any input is accepted: pages outside
// [1, TotalPages] and non-positive page sizes give an empty, non-nil slice.
// The returned slice shares no backing array with items.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || page-1 >= TotalPages(len(items), pageSize) {
		return []T{}
	}
	// page is in range, so start < len(items) and nothing below can overflow
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// PageInfo describes where a page sits in a paged result.
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// NewPageInfo computes pagination metadata for total items.
func NewPageInfo(page, pageSize, total int) PageInfo {
	totalPages := TotalPages(total, pageSize)
	return PageInfo{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}
