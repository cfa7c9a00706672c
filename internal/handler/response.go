package handler

import (
	"errors"
	"net/http"

	"study_dashboard/internal/middleware"
	"study_dashboard/internal/model"
	"study_dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// currentUser re-reads the authenticated user so that a deleted account or a
// changed role is not trusted from an older token. It writes the error
// response itself and reports false when the request must stop.
func currentUser(c *gin.Context, svc service.AuthService, logger *zerolog.Logger) (*model.User, bool) {
	userID := c.GetString(middleware.AuthUserKey)
	if userID == "" {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	user, err := svc.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusUnauthorized, "Account no longer exists")
			return nil, false
		}
		logger.Error().Err(err).Str("user_id", userID).Msg("profile lookup failed")
		fail(c, http.StatusInternalServerError, "Failed to load profile")
		return nil, false
	}
	return user, true
}
