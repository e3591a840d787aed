package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-eca-api/internal/middleware"
	"github.com/noah-isme/sma-eca-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// pageParams reads page and limit, clamping limit to maxLimit.
func pageParams(c *gin.Context, defLimit, maxLimit int) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defLimit)))
	if err != nil || limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, *models.Pagination) {
	pagination := &models.Pagination{Page: page, PageSize: limit, TotalCount: len(items)}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, pagination
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pagination
}
