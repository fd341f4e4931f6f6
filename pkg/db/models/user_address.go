package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAddress is a saved delivery address. Courier checkouts must reference
// an address owned by the ordering user.
type UserAddress struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	City      string    `gorm:"column:city;not null"`
	Street    string    `gorm:"column:street;not null"`
	Building  string    `gorm:"column:building"`
	Apartment string    `gorm:"column:apartment"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
