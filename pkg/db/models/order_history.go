package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderHistory is the append-only audit record written the first time an
// order is delivered. The unique order index makes the write idempotent.
type OrderHistory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	OrderDate time.Time `gorm:"column:order_date;autoCreateTime"`
}
