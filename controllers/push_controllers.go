package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

type PushController struct {
	DB *gorm.DB
}

func NewPushController(db *gorm.DB) *PushController {
	return &PushController{DB: db}
}

// Subscribe -> staff browser registers its web-push endpoint. The same
// endpoint re-registered by another user is re-bound, not duplicated.
func (pc *PushController) Subscribe(c *gin.Context) {
	var body struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurantID := tenantID(c)
	userID := staffID(c)

	var sub models.PushSubscription
	err := pc.DB.Where("endpoint = ?", body.Endpoint).First(&sub).Error
	if err == nil {
		sub.RestaurantID = restaurantID
		sub.UserID = userID
		sub.P256dh = body.Keys.P256dh
		sub.Auth = body.Keys.Auth
		if err := pc.DB.Save(&sub).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Subscription updated", sub)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	sub = models.PushSubscription{
		RestaurantID: restaurantID,
		UserID:       userID,
		Endpoint:     body.Endpoint,
		P256dh:       body.Keys.P256dh,
		Auth:         body.Keys.Auth,
	}
	if err := pc.DB.Create(&sub).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Push subscription %d registered for user %d", sub.ID, userID)
	utils.RespondJSON(c, http.StatusCreated, "Subscription created", sub)
}
