package models

import "time"

// Table statuses. reserved is a staff-only override; the rest are driven by
// sessions and notifications.
const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
	TableStatusReserved = "reserved"
	TableStatusCalling  = "calling"
	TableStatusClosing  = "closing"
)

type Table struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UUID         string `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	Number       string `gorm:"type:varchar(50);not null" json:"number"`
	Status       string `gorm:"type:varchar(20);not null;default:'free'" json:"status"`

	// CurrentSessionID is non-nil exactly while the table is occupied,
	// calling or closing.
	CurrentSessionID *uint         `json:"current_session_id"`
	ActiveSession    *TableSession `gorm:"foreignKey:CurrentSessionID" json:"active_session,omitempty"`

	// Lifetime telemetry, incremented atomically at the storage layer.
	LifetimeSessionCount    uint  `gorm:"not null;default:0" json:"lifetime_session_count"`
	LifetimeOccupiedSeconds int64 `gorm:"not null;default:0" json:"lifetime_occupied_seconds"`

	// QRCodeToken is the stable token printed on the physical table,
	// part of the tablet URL.
	QRCodeToken string `gorm:"type:varchar(64);uniqueIndex;not null" json:"qr_code_token"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// HasActiveSession reports whether a guest session is currently bound to
// the table.
func (t *Table) HasActiveSession() bool {
	return t.CurrentSessionID != nil
}
