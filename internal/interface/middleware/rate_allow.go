package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limiter for loopback and RFC 1918 clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(ipFromCtx(c))
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}
