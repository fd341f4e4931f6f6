package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a cart. ToPurchase lets a user keep a line in the
// cart without including it in the next checkout.
type CartItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID     uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	VariantID  uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null;check:quantity >= 1"`
	ToPurchase bool      `gorm:"column:to_purchase;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
