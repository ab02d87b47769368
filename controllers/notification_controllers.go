package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB            *gorm.DB
	Notifications *services.NotificationService
	Tables        *services.TableService
}

func NewNotificationController(db *gorm.DB, push services.PushEnqueuer) *NotificationController {
	return &NotificationController{
		DB:            db,
		Notifications: services.NewNotificationService(db, push),
		Tables:        services.NewTableService(db),
	}
}

// CreateFromTable -> tablet raises a service call via its QR token
func (nc *NotificationController) CreateFromTable(c *gin.Context) {
	table, err := nc.Tables.GetByToken(c.Param("token"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var body struct {
		Type          string  `json:"type" binding:"required"`
		PaymentMethod *string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	notification, err := nc.Notifications.Create(table.RestaurantID, table.UUID, body.Type, body.PaymentMethod)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Notification created", notification)
}

// CreateNotification -> staff raises a call for a table addressed by id or
// uuid
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	var body struct {
		TableID       string  `json:"table_id" binding:"required"`
		Type          string  `json:"type" binding:"required"`
		PaymentMethod *string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	notification, err := nc.Notifications.Create(tenantID(c), body.TableID, body.Type, body.PaymentMethod)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Notification created", notification)
}

// GetPendingNotifications -> the waiter panel, oldest call first
func (nc *NotificationController) GetPendingNotifications(c *gin.Context) {
	notifications, err := nc.Notifications.ListPending(tenantID(c))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending notifications", notifications)
}

// ResolveNotification -> staff answers a call; responds with the
// notification and the reverted table
func (nc *NotificationController) ResolveNotification(c *gin.Context) {
	notifID, err := strconv.Atoi(c.Param("notif_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid notification id"))
		return
	}

	notification, table, err := nc.Notifications.Resolve(tenantID(c), uint(notifID))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification resolved", gin.H{
		"notification": notification,
		"table":        table,
	})
}
