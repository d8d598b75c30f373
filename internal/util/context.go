package util

import (
	"github.com/gin-gonic/gin"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/errors"
)

// GetUserIDFromContext extracts the user ID set by the auth middleware.
// If the user is not authenticated, it responds with 401 Unauthorized.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		RespondWithAPIError(c, errors.Unauthorized("user not authenticated"))
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondWithAPIError(c, errors.InternalError("invalid user ID in context"))
		return "", false
	}
	return userIDStr, true
}
