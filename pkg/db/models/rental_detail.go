package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
)

// RentalDetail holds the category-specific payload for rental-room listings.
// ListingID stays NULL until the index record commits; the reconciler treats
// old NULL rows as orphans.
type RentalDetail struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID       uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	ListingID     *uuid.UUID        `gorm:"column:listing_id;type:uuid;index"`
	Title         string            `gorm:"column:title;not null"`
	Description   string            `gorm:"column:description;not null"`
	RoomType      string            `gorm:"column:room_type;not null"`
	MonthlyRent   decimal.Decimal   `gorm:"column:monthly_rent;type:numeric(12,2);not null"`
	Deposit       decimal.Decimal   `gorm:"column:deposit;type:numeric(12,2);not null"`
	Furnished     bool              `gorm:"column:furnished;not null;default:false"`
	Address       string            `gorm:"column:address;not null"`
	City          string            `gorm:"column:city;not null;index"`
	AvailableFrom *time.Time        `gorm:"column:available_from"`
	Media         dbtypes.MediaRefs `gorm:"column:media;type:jsonb;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
