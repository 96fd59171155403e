package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxRealIPKey = "real_ip"

// RealIP sets the client IP into the Gin context (key: "real_ip").
// Priority:
// 1) CF-Connecting-IP (Cloudflare)
// 2) X-Forwarded-For (left-most)
// 3) c.ClientIP()
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, resolveIP(c))
		c.Next()
	}
}

func resolveIP(c *gin.Context) string {
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

// ClientIP returns the IP resolved by RealIP, falling back to "unknown".
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
