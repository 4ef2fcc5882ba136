package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

// ErrorHandler translates errors collected via c.Error into the common JSON
// error envelope. The last error wins; handlers attach at most one.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	err := c.Errors.Last().Err
	status := ierr.HTTPStatusFromErr(err)
	c.AbortWithStatusJSON(status, ierr.NewErrorResponse(err))
}
