package services

import (
	"errors"

	"github.com/ordengo/floor-api/hub"
	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// nextOrderStatus is the forward-only kitchen flow. cancelled is handled
// separately: reachable from any non-terminal status.
var nextOrderStatus = map[string]string{
	models.OrderStatusPending:   models.OrderStatusAccepted,
	models.OrderStatusAccepted:  models.OrderStatusPreparing,
	models.OrderStatusPreparing: models.OrderStatusReady,
	models.OrderStatusReady:     models.OrderStatusDelivered,
}

var knownOrderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusAccepted:  true,
	models.OrderStatusPreparing: true,
	models.OrderStatusReady:     true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

func canTransition(from, to string) bool {
	if to == models.OrderStatusCancelled {
		return from != models.OrderStatusDelivered && from != models.OrderStatusCancelled
	}
	return nextOrderStatus[from] == to
}

// OrderItemRequest is one line of an incoming order. Any price a tablet
// sends rides along for display only; the resolver recomputes it.
type OrderItemRequest struct {
	ProductID        uint    `json:"product_id" binding:"required"`
	ProductVariantID *uint   `json:"product_variant_id"`
	Quantity         int     `json:"quantity" binding:"required"`
	ModifierIDs      []uint  `json:"modifier_ids"`
	Observation      string  `json:"observation"`
	UnitPrice        float64 `json:"unit_price"` // advisory, never trusted
}

type CreateOrderRequest struct {
	Items    []OrderItemRequest `json:"items" binding:"required"`
	Notes    string             `json:"notes"`
	WaiterID *uint              `json:"-"`
}

// OrderService is the order ledger: creation with server-side pricing,
// status transitions and the KDS listings.
type OrderService struct {
	DB     *gorm.DB
	Prices *PriceResolver
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db, Prices: NewPriceResolver(db)}
}

// CreateOrder writes an order and its items against an open session and
// bumps the session's running total, all in one transaction.
func (osv *OrderService) CreateOrder(restaurantID, sessionID uint, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, utils.Validationf("order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, utils.Validationf("item quantity must be at least 1")
		}
	}

	var session models.TableSession
	if err := osv.DB.Where("id = ? AND restaurant_id = ?", sessionID, restaurantID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}
	if session.Status != models.SessionStatusOpen {
		return nil, utils.Conflictf("session %d is not open", sessionID)
	}

	var orderTotal float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		resolved, err := osv.Prices.ResolveUnitPrice(restaurantID, reqItem.ProductID, reqItem.ProductVariantID, reqItem.ModifierIDs)
		if err != nil {
			return nil, err
		}

		unitPrice := resolved.UnitPrice + resolved.ModifiersTotal
		lineTotal := unitPrice * float64(reqItem.Quantity)
		orderTotal += lineTotal

		items = append(items, models.OrderItem{
			ProductID:        reqItem.ProductID,
			ProductVariantID: reqItem.ProductVariantID,
			Quantity:         reqItem.Quantity,
			UnitPrice:        unitPrice,
			TotalPrice:       lineTotal,
			Modifiers:        resolved.Modifiers,
			Observation:      reqItem.Observation,
		})
	}

	order := models.Order{
		RestaurantID:   restaurantID,
		TableSessionID: session.ID,
		WaiterID:       req.WaiterID,
		Status:         models.OrderStatusPending,
		Total:          orderTotal,
		Notes:          req.Notes,
	}

	err := osv.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Model(&models.TableSession{}).
			Where("id = ?", session.ID).
			Update("total_amount", gorm.Expr("total_amount + ?", orderTotal)).Error
	})
	if err != nil {
		return nil, err
	}

	full, err := osv.loadFullOrder(order.ID)
	if err != nil {
		return nil, err
	}

	msg := hub.Message{Event: hub.EventNewOrder, Data: full}
	hub.Publish(hub.TenantChannel(restaurantID), msg)
	hub.Publish(hub.TableChannel(session.TableID), msg)

	utils.InfoLogger.Printf("Order %d created on session %d (total %s)",
		order.ID, session.ID, utils.FormatCurrency(orderTotal))
	return full, nil
}

// UpdateStatus moves an order along the kitchen flow. Backward or skipping
// moves fail with InvalidTransition.
func (osv *OrderService) UpdateStatus(restaurantID, orderID uint, newStatus string) (*models.Order, error) {
	if !knownOrderStatuses[newStatus] {
		return nil, utils.Validationf("unknown order status '%s'", newStatus)
	}

	var order models.Order
	if err := osv.DB.Preload("TableSession").
		Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("order %d not found", orderID)
		}
		return nil, err
	}

	if !canTransition(order.Status, newStatus) {
		return nil, utils.InvalidTransitionf("cannot move order %d from %s to %s", order.ID, order.Status, newStatus)
	}

	err := osv.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		// A cancelled order leaves the bill: the session total tracks the
		// sum over non-cancelled orders. Closed sessions are history and
		// stay untouched.
		if newStatus == models.OrderStatusCancelled && order.TableSession.Status == models.SessionStatusOpen {
			return tx.Model(&models.TableSession{}).
				Where("id = ?", order.TableSessionID).
				Update("total_amount", gorm.Expr("total_amount - ?", order.Total)).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = newStatus

	full, err := osv.loadFullOrder(order.ID)
	if err != nil {
		return nil, err
	}

	hub.Publish(hub.TableChannel(order.TableSession.TableID), hub.Message{
		Event: hub.EventOrderStatusUpdate,
		Data:  map[string]interface{}{"order_id": order.ID, "status": newStatus},
	})
	hub.Publish(hub.TenantChannel(restaurantID), hub.Message{
		Event: hub.EventOrderUpdated,
		Data:  full,
	})

	utils.InfoLogger.Printf("Order %d moved to %s", order.ID, newStatus)
	return full, nil
}

// ListActive returns the tenant's in-flight orders, oldest first. Kitchen
// staff rely on this ordering to always see the oldest unresolved ticket at
// the top.
func (osv *OrderService) ListActive(restaurantID uint) ([]models.Order, error) {
	var orders []models.Order
	err := osv.DB.Preload("Items").
		Preload("Items.Product").
		Preload("TableSession").
		Preload("TableSession.Table").
		Where("restaurant_id = ? AND status IN ?", restaurantID, models.ActiveOrderStatuses).
		Order("created_at asc").
		Find(&orders).Error
	return orders, err
}

// ListSessionOrders is the guest's bill view, newest first.
func (osv *OrderService) ListSessionOrders(restaurantID, sessionID uint) ([]models.Order, error) {
	var orders []models.Order
	err := osv.DB.Preload("Items").
		Preload("Items.Product").
		Where("restaurant_id = ? AND table_session_id = ?", restaurantID, sessionID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (osv *OrderService) loadFullOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := osv.DB.Preload("Items").
		Preload("Items.Product").
		Preload("TableSession").
		Preload("TableSession.Table").
		First(&order, orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
