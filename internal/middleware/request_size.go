package middleware

import (
	"errors"
	"net/http"

	appErrors "gateway-registry/pkg/errors"
	"gateway-registry/pkg/utils"

	"github.com/gin-gonic/gin"
)

const DefaultMaxRequestSize int64 = 1 << 20

const msgBodyTooLarge = "Request body too large"

// RequestSizeLimitMiddleware answers 413 when the declared Content-Length
// exceeds limit. Bodies sent without a length are wrapped so reads fail past
// the limit, and the handler reports it through IsBodyTooLarge.
func RequestSizeLimitMiddleware(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			RejectBodyTooLarge(c)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the size limit.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func RejectBodyTooLarge(c *gin.Context) {
	utils.ErrorResponseWithCode(c, http.StatusRequestEntityTooLarge, appErrors.CodePayloadTooLarge, "", msgBodyTooLarge)
}
