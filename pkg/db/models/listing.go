package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// Listing is the cross-category index record for a submission. It is written
// only after the category detail record exists, so DetailID is always set on
// committed rows. Rows are never hard-deleted.
type Listing struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID         uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	OwnerEmail      string              `gorm:"column:owner_email;not null"`
	Category        enums.Category      `gorm:"column:category;type:listing_category;not null;index"`
	Status          enums.ListingStatus `gorm:"column:status;type:listing_status;not null;default:'pending';index"`
	Media           dbtypes.MediaRefs   `gorm:"column:media;type:jsonb;not null"`
	DetailID        uuid.UUID           `gorm:"column:detail_id;type:uuid;not null"`
	TitlePreview    string              `gorm:"column:title_preview;not null"`
	LocationPreview string              `gorm:"column:location_preview;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}
