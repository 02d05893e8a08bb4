package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/service"
)

// pathID parses a numeric path parameter; anything else is a missing resource.
func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrNotFound
	}
	return uint(id), nil
}

// queryFlag reads a boolean filter; "1" and "true" enable it.
func queryFlag(c *gin.Context, name string) (bool, error) {
	switch c.Query(name) {
	case "", "0", "false", "False":
		return false, nil
	case "1", "true", "True":
		return true, nil
	default:
		return false, service.NewValidationError(name, "Must be 0 or 1.")
	}
}

// recipesLimit reads ?recipes_limit=. Zero means unlimited.
func recipesLimit(c *gin.Context) (int, error) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, service.NewValidationError("recipes_limit", "A positive integer is required.")
	}
	return n, nil
}
