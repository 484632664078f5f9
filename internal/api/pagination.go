package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// paginationFromQuery reads ?page= and ?limit=.
func paginationFromQuery(c *gin.Context) types.Pagination {
	return types.NewPagination(queryInt(c, "page"), queryInt(c, "limit"))
}

// pageURL is the absolute URL of the current request with page replaced.
func pageURL(c *gin.Context, page int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	s := u.String()
	return &s
}

// respondPage writes the paginated envelope.
func respondPage[T any](c *gin.Context, p types.Pagination, result *types.Paginated[T]) {
	page := types.Page[T]{Count: result.Count, Results: result.Items}
	if page.Results == nil {
		page.Results = []T{}
	}
	if p.HasNext(result.Count) {
		page.Next = pageURL(c, p.Page+1)
	}
	if p.Page > 1 {
		page.Previous = pageURL(c, p.Page-1)
	}
	c.JSON(http.StatusOK, page)
}
