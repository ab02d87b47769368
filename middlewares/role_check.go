package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/utils"
)

// RequireRoles gates a route to the given staff roles. Admins pass every
// gate. Runs after AuthMiddleware, which put the role on the context.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("role")
		role, _ := v.(string)
		if !exists || role == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("role missing from token"))
			c.Abort()
			return
		}

		if role == "admin" {
			c.Next()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, errors.New("insufficient role for this action"))
		c.Abort()
	}
}
