package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/namito/commerce-backend/pkg/enums"
)

// Variant is the purchasable SKU projection the fulfillment core consumes.
// Catalog writes (names, prices, discounts) happen outside this service; the
// stock counter is mutated exclusively through the inventory ledger.
type Variant struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU           string              `gorm:"column:sku;not null;uniqueIndex"`
	Name          string              `gorm:"column:name;not null"`
	BasePriceCents int                `gorm:"column:base_price_cents;not null"`
	DiscountValue *decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2)"`
	DiscountType  *enums.DiscountType `gorm:"column:discount_type;type:text"`
	Stock         int                 `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
