package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

type OrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
	Tables *services.TableService
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{
		DB:     db,
		Orders: services.NewOrderService(db),
		Tables: services.NewTableService(db),
	}
}

// CreateOrder -> tablet sends a ticket to the kitchen against its table's
// open session
func (oc *OrderController) CreateOrder(c *gin.Context) {
	table, err := oc.Tables.GetByToken(c.Param("token"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if !table.HasActiveSession() {
		utils.RespondAppError(c, utils.Conflictf("table %s has no open session", table.Number))
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(table.RestaurantID, *table.CurrentSessionID, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// CreateStaffOrder -> waiter places an order on behalf of a session
func (oc *OrderController) CreateStaffOrder(c *gin.Context) {
	var body struct {
		TableSessionID uint                        `json:"table_session_id" binding:"required"`
		Items          []services.OrderItemRequest `json:"items" binding:"required"`
		Notes          string                      `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	waiter := staffID(c)
	req := services.CreateOrderRequest{Items: body.Items, Notes: body.Notes}
	if waiter != 0 {
		req.WaiterID = &waiter
	}

	order, err := oc.Orders.CreateOrder(tenantID(c), body.TableSessionID, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// UpdateOrderStatus -> kitchen/staff moves a ticket along the flow
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondAppError(c, utils.Validationf("invalid order id"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(tenantID(c), uint(orderID), body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// GetActiveOrders -> the KDS queue, oldest ticket first
func (oc *OrderController) GetActiveOrders(c *gin.Context) {
	orders, err := oc.Orders.ListActive(tenantID(c))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active orders", orders)
}

// GetTableOrders -> tablet lists the orders of its current session
func (oc *OrderController) GetTableOrders(c *gin.Context) {
	table, err := oc.Tables.GetByToken(c.Param("token"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if !table.HasActiveSession() {
		utils.RespondJSON(c, http.StatusOK, "Session orders", []interface{}{})
		return
	}

	orders, err := oc.Orders.ListSessionOrders(table.RestaurantID, *table.CurrentSessionID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session orders", orders)
}
