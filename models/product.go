package models

import "time"

// Catalog read contract. Menu CRUD lives elsewhere; the floor engine only
// reads these rows to resolve authoritative prices.

type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL     *string   `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	Available    bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// ProductVariant is a size/option of a product ("Small", "Large"). Its price
// replaces the product base price.
type ProductVariant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Modifier is a priced add-on ("Extra bacon"). The price stored here is the
// authoritative one; whatever a tablet sends is ignored.
type Modifier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	ProductID    *uint     `gorm:"index" json:"product_id,omitempty"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Price        float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"price"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
