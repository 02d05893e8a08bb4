package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Paginator reads ?page=&limit= and builds the list envelope.
type Paginator struct {
	PageSize    int
	MaxPageSize int
}

// Parse returns the requested page. A page that is not a positive integer
// is reported as not found.
func (p Paginator) Parse(c *gin.Context) (types.PageRequest, error) {
	req := types.PageRequest{Page: 1, Limit: p.PageSize}
	if req.Limit <= 0 {
		req.Limit = 6
	}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, service.ErrNotFound
		}
		req.Page = n
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.Limit = n
		}
	}
	if p.MaxPageSize > 0 && req.Limit > p.MaxPageSize {
		req.Limit = p.MaxPageSize
	}
	return req, nil
}

func pageOf[T any](c *gin.Context, req types.PageRequest, results []T, count int64) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: count, Results: results}
	if int64(req.Page*req.Limit) < count {
		next := pageURL(c, req.Page+1)
		page.Next = &next
	}
	if req.Page > 1 {
		prev := pageURL(c, req.Page-1)
		page.Previous = &prev
	}
	return page
}

// pageURL rewrites the current absolute URL to point at another page.
// Page 1 drops the parameter.
func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	u.Host = c.Request.Host

	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
