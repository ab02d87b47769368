package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/utils"
	"github.com/sirupsen/logrus"
)

// LoggerMiddleware emits one structured access line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info(path)
	}
}
