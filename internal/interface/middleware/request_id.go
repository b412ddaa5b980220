package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/pkg/response"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, reusing a caller-supplied
// X-Request-ID when it parses as a UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
