package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxRealIPKey = "real_ip"

// RealIP stores the client IP under "real_ip". Proxy headers are only honoured when trustHeaders is
// set, otherwise the socket peer address is used so a client cannot pick its own rate-limit bucket.
// Priority when trusted: CF-Connecting-IP, then the left-most X-Forwarded-For entry, then c.ClientIP().
func RealIP(trustHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, resolveIP(c, trustHeaders))
		c.Next()
	}
}

func resolveIP(c *gin.Context, trustHeaders bool) string {
	if !trustHeaders {
		return c.RemoteIP()
	}
	if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
		if ip := net.ParseIP(cf); ip != nil {
			return ip.String()
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
