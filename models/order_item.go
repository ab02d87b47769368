package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ModifierSnapshot is an immutable copy of a modifier's name and price taken
// at order time, so later catalog edits never rewrite history.
type ModifierSnapshot struct {
	ModifierID uint    `json:"modifier_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

// ModifierSnapshots is stored as a JSON column.
type ModifierSnapshots []ModifierSnapshot

func (m ModifierSnapshots) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *ModifierSnapshots) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for ModifierSnapshots")
	}
}

// OrderItem is a line item. Created atomically with its order and immutable
// afterwards; reprints/refunds are new records.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order            Order             `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductID        uint              `gorm:"not null" json:"product_id"`
	Product          Product           `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product"`
	ProductVariantID *uint             `json:"product_variant_id,omitempty"`
	Quantity         int               `gorm:"not null" json:"quantity"`
	UnitPrice        float64           `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice       float64           `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Modifiers        ModifierSnapshots `gorm:"type:text" json:"modifiers"`
	Observation      string            `gorm:"type:text" json:"observation"`
	CreatedAt        time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null" json:"updated_at"`
}
