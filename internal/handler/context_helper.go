package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/middleware"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/response"
)

// studentFromContext returns the acting student or writes 401 and reports false.
func studentFromContext(c *gin.Context) (string, bool) {
	id, ok := middleware.StudentID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return id, true
}
