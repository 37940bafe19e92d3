package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
)

// CoachingDetail holds the category-specific payload for coaching-class listings.
type CoachingDetail struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	ListingID   *uuid.UUID        `gorm:"column:listing_id;type:uuid;index"`
	Title       string            `gorm:"column:title;not null"`
	Description string            `gorm:"column:description;not null"`
	Subjects    string            `gorm:"column:subjects;not null"`
	MonthlyFee  decimal.Decimal   `gorm:"column:monthly_fee;type:numeric(12,2);not null"`
	BatchSize   int               `gorm:"column:batch_size;not null"`
	Mode        string            `gorm:"column:mode;not null"`
	Address     string            `gorm:"column:address;not null"`
	City        string            `gorm:"column:city;not null;index"`
	Media       dbtypes.MediaRefs `gorm:"column:media;type:jsonb;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
