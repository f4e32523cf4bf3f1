package policy

import "geoblog/internal/domain/content"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func NormalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Page slices an already filtered and sorted list. Pages past the end are
// empty.
func Page(articles []content.Article, page, size int) []content.Article {
	page, size = NormalizePaging(page, size)
	start := (page - 1) * size
	if start >= len(articles) {
		return []content.Article{}
	}
	end := start + size
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end]
}
