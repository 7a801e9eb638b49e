package middleware

import (
	"gateway-registry/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	requestIDRule = "printascii,max=128"
)

// RequestIDMiddleware tags every request with a correlation id. A caller's
// X-Request-ID is reused when it passes requestIDRule, otherwise a UUID is
// minted. The id is echoed back to the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !acceptableRequestID(id) {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func acceptableRequestID(id string) bool {
	return id != "" && validator.ValidateVar(id, requestIDRule) == nil
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
