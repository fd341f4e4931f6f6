package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal profile projection the fulfillment core reads: push
// token resolution for notifications. Account management lives elsewhere.
type User struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone                string    `gorm:"column:phone;not null;uniqueIndex"`
	FullName             *string   `gorm:"column:full_name"`
	FCMToken             *string   `gorm:"column:fcm_token"`
	NotificationsEnabled bool      `gorm:"column:notifications_enabled;not null;default:true"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
