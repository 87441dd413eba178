package models

// DirectoryPageSize is the fixed page size used by the checkout views
const DirectoryPageSize = 10

// PaginationResult holds pagination metadata
type PaginationResult struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationResult creates a pagination result
func NewPaginationResult(page, pageSize int, totalCount int64) PaginationResult {
	return PaginationResult{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: TotalPages(totalCount, pageSize),
	}
}

// TotalPages returns how many pages of pageSize are needed for totalCount items
func TotalPages(totalCount int64, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}
	return totalPages
}

// ValidateAndSetDefaults validates one-based pagination parameters and sets defaults
func ValidateAndSetDefaults(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = 20
	}
	if *pageSize > 100 {
		*pageSize = 100
	}
}

// ValidateDirectoryQuery normalizes a zero-based directory query
func ValidateDirectoryQuery(q *DirectoryQuery) {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize < 1 {
		q.PageSize = DirectoryPageSize
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.SortOrder != SortDesc {
		q.SortOrder = SortAsc
	}
}

// CalculateOffset calculates the SQL offset for one-based pagination
func CalculateOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}
