package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crs-api/internal/models"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/response"
)

// ContextStudentKey is the gin context key storing the acting student's id.
const ContextStudentKey = "studentID"

// RequireRoles rejects requests whose token role is not one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// StudentIdentity requires a student token and exposes its subject as the acting student. The
// student id is always taken from the token, never from the request.
func StudentIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil || claims.UserID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role != models.RoleStudent {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "student token required"))
			c.Abort()
			return
		}
		c.Set(ContextStudentKey, claims.UserID)
		c.Next()
	}
}

// StudentID returns the id stored by StudentIdentity.
func StudentID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextStudentKey)
	return id, id != ""
}
