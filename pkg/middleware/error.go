package middleware

import (
	"errors"
	"net/http"

	"zamora-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error converts domain errors attached to the gin context into the JSON
// error envelope. Anything that is not a BaseError is reported as internal
// without leaking the underlying cause.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var base errutil.BaseError
		if errors.As(last.Err, &base) {
			c.JSON(base.Code.HTTPStatus(), base.JSON())
			return
		}

		c.JSON(http.StatusInternalServerError, errutil.BaseError{
			Code:    errutil.StatusInternal,
			Message: "internal error",
		}.JSON())
	}
}
