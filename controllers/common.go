package controllers

import (
	"github.com/gin-gonic/gin"
)

// tenantID returns the restaurant id the auth middleware resolved for this
// request.
func tenantID(c *gin.Context) uint {
	v, _ := c.Get("restaurant_id")
	id, _ := v.(uint)
	return id
}

// staffID returns the authenticated staff member, 0 when absent.
func staffID(c *gin.Context) uint {
	v, _ := c.Get("user_id")
	id, _ := v.(uint)
	return id
}
