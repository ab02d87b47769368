package services

import (
	"errors"

	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// PriceResolver returns the authoritative unit price for a catalog
// selection. Tablets are untrusted: any price a client submits is advisory
// and gets recomputed here before an order is written.
type PriceResolver struct {
	DB *gorm.DB
}

func NewPriceResolver(db *gorm.DB) *PriceResolver {
	return &PriceResolver{DB: db}
}

// ResolvedItem is the server-side pricing of one order line.
type ResolvedItem struct {
	Product        models.Product
	UnitPrice      float64 // base or variant price, modifiers excluded
	Modifiers      models.ModifierSnapshots
	ModifiersTotal float64
}

// ResolveUnitPrice looks up the product, optional variant and selected
// modifiers within the tenant. Ids that do not exist or belong to another
// tenant fail with NotFound; cross-tenant misses are indistinguishable from
// absent rows.
func (pr *PriceResolver) ResolveUnitPrice(restaurantID, productID uint, variantID *uint, modifierIDs []uint) (*ResolvedItem, error) {
	var product models.Product
	if err := pr.DB.Where("id = ? AND restaurant_id = ?", productID, restaurantID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("product %d not found", productID)
		}
		return nil, err
	}

	item := &ResolvedItem{
		Product:   product,
		UnitPrice: product.Price,
	}

	if variantID != nil {
		var variant models.ProductVariant
		if err := pr.DB.Where("id = ? AND product_id = ?", *variantID, productID).First(&variant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NotFoundf("variant %d not found for product %d", *variantID, productID)
			}
			return nil, err
		}
		// The variant price replaces the base price.
		item.UnitPrice = variant.Price
	}

	for _, modifierID := range modifierIDs {
		var modifier models.Modifier
		if err := pr.DB.Where("id = ? AND restaurant_id = ?", modifierID, restaurantID).First(&modifier).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NotFoundf("modifier %d not found", modifierID)
			}
			return nil, err
		}
		item.Modifiers = append(item.Modifiers, models.ModifierSnapshot{
			ModifierID: modifier.ID,
			Name:       modifier.Name,
			Price:      modifier.Price,
		})
		item.ModifiersTotal += modifier.Price
	}

	return item, nil
}
