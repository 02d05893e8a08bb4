package service

import (
	"strings"

	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

func paginate(page types.PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Offset()).Limit(page.Limit)
	}
}

// checkPage rejects pages past the end. The first page is always valid.
func checkPage(page types.PageRequest, total int64) error {
	if page.Page > 1 && int64(page.Offset()) >= total {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds a case-insensitive LIKE pattern for a substring.
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func likePrefix(s string) string {
	return likeEscaper.Replace(strings.ToLower(s)) + "%"
}
