package util

import (
	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/errors"
	"github.com/zaplinker/backend/internal/logger"
	"go.uber.org/zap"
)

// HandleServiceError maps repository and service errors to HTTP responses
// Returns true if the error was handled (and response was sent), false otherwise
func HandleServiceError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	apiErr := errors.FromError(err, resourceName)
	if apiErr.Code == errors.ErrInternalError {
		logger.Log.Error("Request failed",
			zap.String("resource", resourceName),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	RespondWithAPIError(c, apiErr)
	return true
}
