package util

import (
	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/errors"
	"github.com/zaplinker/backend/internal/models"
)

// Context keys set by the auth middleware.
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// SetUser stores the authenticated user in the Gin context.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserKey, user)
	c.Set(ContextUserIDKey, user.ID)
}

// GetUserFromContext extracts the authenticated user from the Gin context.
// Returns the user and true if found, or nil and false if not authenticated.
// If the user is not authenticated, it automatically responds with 401 Unauthorized.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(ContextUserKey)
	if !exists {
		RespondWithAPIError(c, errors.Unauthorized("user not authenticated"))
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		RespondWithAPIError(c, errors.InternalError("invalid user data in context"))
		return nil, false
	}
	return userPtr, true
}

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it automatically responds with 401 Unauthorized.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextUserIDKey)
	if !exists {
		RespondWithAPIError(c, errors.Unauthorized("unauthorized"))
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok {
		RespondWithAPIError(c, errors.InternalError("invalid user ID in context"))
		return "", false
	}
	return userIDStr, true
}
