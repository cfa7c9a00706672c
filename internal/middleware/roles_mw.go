package middleware

import (
	"net/http"

	"study_dashboard/internal/model"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits only tokens whose verified role is in allowedRoles.
// JWTAuthMiddleware must run first.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(AuthRoleKey)
		if userRole == "" {
			abort(c, http.StatusForbidden, "Role not found in token")
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "You do not have permission to access this resource")
	}
}

// StudentMiddleware admits students only
func StudentMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleStudent)
}

// MentorMiddleware admits mentors only
func MentorMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleMentor)
}

// AdminMiddleware checks if the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleAdmin)
}
