package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
)

// HostelDetail holds the category-specific payload for hostel-bed listings.
type HostelDetail struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	ListingID   *uuid.UUID        `gorm:"column:listing_id;type:uuid;index"`
	Title       string            `gorm:"column:title;not null"`
	Description string            `gorm:"column:description;not null"`
	Gender      string            `gorm:"column:gender;not null"`
	BedsPerRoom int               `gorm:"column:beds_per_room;not null"`
	MonthlyFee  decimal.Decimal   `gorm:"column:monthly_fee;type:numeric(12,2);not null"`
	Amenities   string            `gorm:"column:amenities"`
	Address     string            `gorm:"column:address;not null"`
	City        string            `gorm:"column:city;not null;index"`
	Media       dbtypes.MediaRefs `gorm:"column:media;type:jsonb;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
