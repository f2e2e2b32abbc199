package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skuswap/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size.
// Requests announcing a larger body are rejected with 413; bodies without a
// length are cut off by http.MaxBytesReader while being read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
