package repository

import (
	"strings"

	"gorm.io/gorm"

	"backoffice/pkg/pagination"
)

// searchScope filters rows whose columns contain search, case-insensitively.
// LOWER/LIKE instead of ILIKE keeps the query portable across postgres and sqlite.
func searchScope(search string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		pattern := pagination.LikePattern(search)
		if pattern == "" || len(columns) == 0 {
			return db
		}
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			conds[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = pattern
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}

func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit < 1 {
			return db
		}
		return db.Offset(pagination.Offset(page, limit)).Limit(limit)
	}
}
