// utils/pagination.go - page-number pagination helpers
package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is the metadata block attached to list responses. Next and
// Previous are page numbers, null at the edges.
type Pagination struct {
	Count       int64 `json:"count"`
	Next        *int  `json:"next"`
	Previous    *int  `json:"previous"`
	PageSize    int   `json:"page_size"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
}

// Paginate computes the pagination block for a total row count. A page past
// the end yields an empty result set upstream, not an error, so next simply
// stays null there.
func Paginate(count int64, page, pageSize int) Pagination {
	totalPages := int((count + int64(pageSize) - 1) / int64(pageSize))

	p := Pagination{
		Count:       count,
		PageSize:    pageSize,
		CurrentPage: page,
		TotalPages:  totalPages,
	}

	if page > 1 {
		prev := page - 1
		p.Previous = &prev
	}
	if page < totalPages {
		next := page + 1
		p.Next = &next
	}

	return p
}

// ParsePageParams reads ?page= and ?page_size= with defaults and bounds.
func ParsePageParams(c *fiber.Ctx) (page, pageSize int) {
	page = parsePositiveInt(c.Query("page"), 1)
	pageSize = parsePositiveInt(c.Query("page_size"), DefaultPageSize)
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
