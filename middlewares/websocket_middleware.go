package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/utils"
)

// WebSocketAuthMiddleware authenticates a socket upgrade. Browsers cannot
// set headers on websocket requests, so the token rides in the query.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("restaurant_id", claims.RestaurantID)
		c.Set("role", claims.Role)

		c.Next()
	}
}
