package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderedItem captures one order line with the effective unit price charged
// at checkout time. Rows are never mutated after creation.
type OrderedItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID      uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	SubtotalCents  int       `gorm:"column:subtotal_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
