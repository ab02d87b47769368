package models

import "time"

// Restaurant is the tenant: every floor entity is partitioned by restaurant_id.
type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Currency  string    `gorm:"type:varchar(10);not null;default:'BRL'" json:"currency"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
