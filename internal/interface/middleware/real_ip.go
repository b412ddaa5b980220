package middleware

import (
	"github.com/gin-gonic/gin"
)

const realIPKey = "real_ip"

// ClientIPHeaders are consulted in order, and only when the direct peer is a
// trusted proxy.
var ClientIPHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// TrustProxies restricts forwarded client-IP headers to requests arriving
// from proxies (IPs or CIDRs). An empty list trusts no one, so the socket
// peer address is used.
func TrustProxies(r *gin.Engine, proxies []string) error {
	r.ForwardedByClientIP = true
	r.RemoteIPHeaders = ClientIPHeaders
	if len(proxies) == 0 {
		return r.SetTrustedProxies(nil)
	}
	return r.SetTrustedProxies(proxies)
}

// RealIP stores the resolved client IP under "real_ip".
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(realIPKey, c.ClientIP())
		c.Next()
	}
}
