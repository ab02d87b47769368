package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ordengo/floor-api/hub"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	DB     *gorm.DB
	Tables *services.TableService
}

func NewWSController(db *gorm.DB) *WSController {
	return &WSController{DB: db, Tables: services.NewTableService(db)}
}

// StaffSocket -> staff/kitchen devices subscribe to their tenant channel
func (wc *WSController) StaffSocket(c *gin.Context) {
	restaurantID := tenantID(c)
	if restaurantID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	hub.RegisterClient(ws, hub.TenantChannel(restaurantID))
	utils.InfoLogger.Printf("Staff client connected (restaurant=%d)", restaurantID)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	hub.UnregisterClient(ws)
}

// TableSocket -> a tablet subscribes to its own table channel via QR token
func (wc *WSController) TableSocket(c *gin.Context) {
	table, err := wc.Tables.GetByToken(c.Param("token"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	hub.RegisterClient(ws, hub.TableChannel(table.ID))
	utils.InfoLogger.Printf("Tablet connected (table=%d)", table.ID)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	hub.UnregisterClient(ws)
}
