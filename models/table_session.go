package models

import "time"

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

// TableSession is one continuous guest occupancy of a table. Once closed it
// is immutable history.
type TableSession struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	RestaurantID uint    `gorm:"index;not null" json:"restaurant_id"`
	TableID      uint    `gorm:"index;not null" json:"table_id"`
	Table        Table   `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	ClientName   *string `gorm:"type:varchar(255)" json:"client_name,omitempty"`
	Status       string  `gorm:"type:varchar(20);not null;default:'open'" json:"status"`

	OpenedAt time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// TotalAmount mirrors the sum of total over non-cancelled orders of
	// this session. Updated inside the same transaction as order creation.
	TotalAmount float64 `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`

	// PaymentMethod is a label only ("pix", "card", "cash"); no settlement
	// happens here.
	PaymentMethod *string `gorm:"type:varchar(50)" json:"payment_method,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
