package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/pkg/enums"
)

// Notification stores the in-app copy of every push the dispatcher sends,
// so clients can list past notifications even if the push was dropped.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Data      json.RawMessage        `gorm:"column:data;type:jsonb;serializer:json"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
