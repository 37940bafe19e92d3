package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// Notification stores in-app notification payloads. RecipientID is NULL for
// reviewer-facing notifications, which every reviewer sees.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID *uuid.UUID             `gorm:"column:recipient_id;type:uuid;index"`
	ListingID   uuid.UUID              `gorm:"column:listing_id;type:uuid;not null"`
	Type        enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title       string                 `gorm:"column:title;type:text;not null"`
	Message     string                 `gorm:"column:message;type:text;not null"`
	Link        *string                `gorm:"column:link;type:text"`
	ReadAt      *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
