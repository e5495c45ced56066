package helpers

import (
	"net/http"
	"strconv"

	"checkinflow/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page/page_size, or the offset-style skip/limit pair, from the query string.
// page_size and limit are clamped to MaxPageSize; skip is rounded down to a page boundary.
// Missing or invalid values fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	pageSize := positiveInt(q.Get("page_size"), 0)
	if pageSize == 0 {
		pageSize = positiveInt(q.Get("limit"), DefaultPageSize)
	}
	pageSize = min(pageSize, MaxPageSize)

	page := positiveInt(q.Get("page"), 0)
	if page == 0 {
		page = DefaultPage
		if skip, err := strconv.Atoi(q.Get("skip")); err == nil && skip > 0 {
			page = skip/pageSize + 1
		}
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

func positiveInt(s string, fallback int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= 1 {
		return v
	}
	return fallback
}

// PaginationMeta is the pagination block of list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta; TotalPages is 0 when pageSize is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}
