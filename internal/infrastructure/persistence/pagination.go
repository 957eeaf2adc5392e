package persistence

import "gorm.io/gorm"

// applyPagination applies page and page-size bounds. Zero values disable paging.
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	return query
}
