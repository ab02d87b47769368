package middlewares

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the baseline response headers. HSTS only goes out
// on TLS requests so plain-HTTP local runs stay reachable.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
