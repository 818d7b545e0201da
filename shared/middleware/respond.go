package middleware

import (
	"time"

	"github.com/eaglebank/transaction-api/shared/response"
	"github.com/gin-gonic/gin"
)

// RespondWithError aborts the request with an error envelope.
func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, response.Failure[any](message, code, response.APIVersionV1, time.Now()))
}
