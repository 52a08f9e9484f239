package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
)

// ErrorHandler renders errors attached to the gin context as the standard
// error envelope. Hints reach the caller; raw internal errors never do.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
		}
	}
}
