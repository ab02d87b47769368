package models

import "time"

// PushSubscription is a staff browser's web-push registration. Dead
// endpoints (410/404 from the push service) are pruned by the dispatcher.
type PushSubscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Endpoint     string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"endpoint"`
	P256dh       string    `gorm:"type:varchar(255);not null" json:"p256dh"`
	Auth         string    `gorm:"type:varchar(255);not null" json:"auth"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
