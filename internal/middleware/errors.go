package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
)

// ErrorHandler centralizes the apperrors.Error -> HTTP response mapping so
// handlers can do `c.Error(err); return` instead of repeating a status
// switch. It must be registered before any route so it runs last, after
// c.Next() unwinds back through every handler that called c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		logger := GetLoggerFromContext(c)

		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			if appErr.Status >= http.StatusInternalServerError {
				logger.Error("request failed", "error", err, "status", appErr.Status)
			} else {
				logger.Warn("request rejected", "error", appErr.Message, "status", appErr.Status)
			}
			c.JSON(appErr.Status, gin.H{"error": appErr.Message})
			return
		}

		logger.Error("request failed with unclassified error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
