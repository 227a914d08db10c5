package helpers

import (
	"github.com/yigit/moderator/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1
)

// NormalizePageSize falls back to def when size is out of range
func NormalizePageSize(size, def int) int {
	if def <= 0 || def > MaxPageSize {
		def = DefaultPageSize
	}
	if size <= 0 || size > MaxPageSize {
		return def
	}
	return size
}

// TotalPages returns the page count for totalItems, never less than 1
func TotalPages(totalItems int64, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if totalItems <= 0 {
		return 1
	}
	return int((totalItems + int64(size) - 1) / int64(size))
}

// ClampPage maps page into [1, TotalPages]. An out-of-range page lands on the last page.
func ClampPage(page, size int, totalItems int64) int {
	if page < DefaultPage {
		return DefaultPage
	}
	if last := TotalPages(totalItems, size); page > last {
		return last
	}
	return page
}

// CalculateOffsetLimit calculates the offset and limit for SQL queries based on 1-based page index.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	limit = NormalizePageSize(size, DefaultPageSize)
	if page < 1 {
		page = DefaultPage
	}
	return uint64((page - 1) * limit), limit
}

// NewPaginationInfo creates a standard PaginationInfo DTO for an already clamped page
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	size = NormalizePageSize(size, DefaultPageSize)
	return dto.PaginationInfo{
		CurrentPage: ClampPage(page, size, totalItems),
		TotalPages:  TotalPages(totalItems, size),
		PageSize:    size,
		TotalItems:  totalItems,
	}
}
