package models

import "time"

// Order statuses. Transitions are forward-only along the kitchen flow;
// cancelled is reachable from any non-terminal status.
const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ActiveOrderStatuses is the kitchen production set, used by the KDS listing.
var ActiveOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
}

// Order is one kitchen ticket. Orders are never deleted; they are an audit
// record.
type Order struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	RestaurantID   uint         `gorm:"index;not null" json:"restaurant_id"`
	TableSessionID uint         `gorm:"index;not null" json:"table_session_id"`
	TableSession   TableSession `gorm:"foreignKey:TableSessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table_session,omitempty"`
	WaiterID       *uint        `gorm:"index" json:"waiter_id,omitempty"`
	Waiter         *User        `gorm:"foreignKey:WaiterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"waiter,omitempty"`
	Status         string       `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Total          float64      `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	Notes          string       `gorm:"type:text" json:"notes"`
	Items          []OrderItem  `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt      time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

// IsTerminal reports whether the order has left the kitchen flow.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}
