package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated list query parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
	Search string // case-insensitive substring filter, empty = no filter
}

// Parse reads page, limit and search from the query string. Out of range or
// non-numeric paging values fall back to the defaults; limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < MinLimit {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: Offset(page, limit),
		Search: strings.TrimSpace(c.Query("search")),
	}
}

// Offset is the number of rows before page. Pages start at 1.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}

// LikePattern turns a search term into a lower-cased LIKE pattern, or "" when there is nothing to match.
func LikePattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return "%" + strings.ToLower(search) + "%"
}
