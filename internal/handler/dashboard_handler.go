package handler

import (
	"net/http"

	"study_dashboard/internal/middleware"
	"study_dashboard/internal/model"
	"study_dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the role-scoped dashboard entry points
type DashboardHandler struct {
	service service.AuthService
	logger  *zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(s service.AuthService, logger *zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, logger: logger}
}

// Dispatch tells the caller which dashboard its stored role maps to
func (h *DashboardHandler) Dispatch(c *gin.Context) {
	user, ok := currentUser(c, h.service, h.logger)
	if !ok {
		return
	}

	path, known := model.DashboardPath(user.Role)
	if !known {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unknown role", "redirect": path})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": path})
}

// View returns a handler for the dashboard of role. The token's role has
// already been checked by RoleMiddleware; the stored role must agree too.
func (h *DashboardHandler) View(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, h.service, h.logger)
		if !ok {
			return
		}
		if user.Role != role {
			fail(c, http.StatusForbidden, "You do not have permission to access this resource")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"view":    role,
			"user":    user.Public(),
		})
	}
}

// RegisterDashboardRoutes registers /dashboard routes behind JWT and role checks
func (h *DashboardHandler) RegisterDashboardRoutes(rg *gin.RouterGroup, jwtAuthMW gin.HandlerFunc) {
	dashboard := rg.Group("/dashboard", jwtAuthMW)
	{
		dashboard.GET("", h.Dispatch)
		dashboard.GET("/student", middleware.StudentMiddleware(), h.View(model.RoleStudent))
		dashboard.GET("/mentor", middleware.MentorMiddleware(), h.View(model.RoleMentor))
		dashboard.GET("/admin", middleware.AdminMiddleware(), h.View(model.RoleAdmin))
	}
}
