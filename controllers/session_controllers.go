package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

type SessionController struct {
	DB       *gorm.DB
	Sessions *services.SessionService
	Tables   *services.TableService
	Orders   *services.OrderService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{
		DB:       db,
		Sessions: services.NewSessionService(db),
		Tables:   services.NewTableService(db),
		Orders:   services.NewOrderService(db),
	}
}

// StartSession -> tablet opens (or re-joins) the session of its table
func (sc *SessionController) StartSession(c *gin.Context) {
	table, err := sc.Tables.GetByToken(c.Param("token"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var body struct {
		ClientName *string `json:"client_name"`
	}
	// Body is optional; a bare POST opens an anonymous session.
	_ = c.ShouldBindJSON(&body)

	session, err := sc.Sessions.StartSession(table.RestaurantID, table.ID, body.ClientName)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session open", session)
}

// CloseSession -> staff settles the bill and frees the table
func (sc *SessionController) CloseSession(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid session id"))
		return
	}

	var body struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.CloseSession(tenantID(c), uint(sessionID), body.PaymentMethod)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session closed", session)
}

// GetSession -> session detail with its table
func (sc *SessionController) GetSession(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid session id"))
		return
	}

	session, err := sc.Sessions.GetSession(tenantID(c), uint(sessionID))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

// GetSessionOrders -> order history of one session (staff view)
func (sc *SessionController) GetSessionOrders(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid session id"))
		return
	}

	orders, err := sc.Orders.ListSessionOrders(tenantID(c), uint(sessionID))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session orders", orders)
}
