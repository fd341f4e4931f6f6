package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/pkg/enums"
)

// Order is the immutable snapshot of a completed checkout. Only Status,
// PaymentStatus and FinishedAt change after creation; TotalAmountCents is
// fixed at checkout time and never recomputed from live prices.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	CartID          *uuid.UUID          `gorm:"column:cart_id;type:uuid"`
	TotalAmountCents int                `gorm:"column:total_amount_cents;not null;default:0"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;type:text;not null"`
	UserAddressID   *uuid.UUID          `gorm:"column:user_address_id;type:uuid"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null;default:'card'"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'in_progress'"`
	PaymentStatus   enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	Items           []OrderedItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	FinishedAt      *time.Time          `gorm:"column:finished_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
