package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams pulls limit/offset from the query string, defaulting to
// 20/0 and capping limit at 100 to bound index/cache work per request.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = 20
	offset = 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// paginationEnvelope is the {data, pagination:{...}} wrapper every listing
// endpoint in spec.md §6 returns.
func paginationEnvelope(c *gin.Context, data interface{}, total, limit, offset int) gin.H {
	path := c.Request.URL.Path
	links := gin.H{
		"self": fmt.Sprintf("%s?limit=%d&offset=%d", path, limit, offset),
	}
	if offset+limit < total {
		links["next"] = fmt.Sprintf("%s?limit=%d&offset=%d", path, limit, offset+limit)
	}
	if offset > 0 {
		prevOffset := offset - limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		links["prev"] = fmt.Sprintf("%s?limit=%d&offset=%d", path, limit, prevOffset)
	}

	return gin.H{
		"data": data,
		"pagination": gin.H{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": offset+limit < total,
			"links":   links,
		},
	}
}

func respondOK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}
