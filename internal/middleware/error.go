package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandlerMiddleware handles errors and panics
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"kind":    errors.KindInternal,
					"error":   "An unexpected error occurred",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := errors.As(c.Errors.Last().Err)
		if appErr.Kind == errors.KindInternal || appErr.Kind == errors.KindPersistence {
			logger.Error().Err(appErr.Unwrap()).Str("path", c.Request.URL.Path).Msg(appErr.Message)
		}
		c.JSON(appErr.Code, gin.H{
			"success": false,
			"kind":    appErr.Kind,
			"error":   appErr.Message,
		})
	}
}
