package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

func ErrorResponseWithCode(c *gin.Context, status int, code, field, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Message: message,
		Code:    code,
		Field:   field,
	})
}

// SuccessResponse writes data as the response body without an envelope.
func SuccessResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
