package models

import "time"

const (
	NotificationCallWaiter  = "CALL_WAITER"
	NotificationRequestBill = "REQUEST_BILL"

	NotificationStatusPending  = "pending"
	NotificationStatusResolved = "resolved"
)

// Notification is a service call raised from a table. At most one pending
// row may exist per (table, type); the dedup check plus the storage unique
// index enforce that.
type Notification struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	TableID      uint   `gorm:"index;not null" json:"table_id"`
	Table        Table  `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"table,omitempty"`
	Type         string `gorm:"type:varchar(20);not null" json:"type"`
	Status       string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// PaymentMethod is the guest's hint on a REQUEST_BILL ("pix", "card").
	PaymentMethod *string `gorm:"type:varchar(50)" json:"payment_method,omitempty"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}
