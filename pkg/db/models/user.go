package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// User is the identity/profile row. SubmissionCount is bumped best-effort
// after each committed submission.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email           string         `gorm:"column:email;not null;unique"`
	DisplayName     string         `gorm:"column:display_name;not null"`
	Role            enums.UserRole `gorm:"column:role;type:user_role;not null;default:'member'"`
	SubmissionCount int64          `gorm:"column:submission_count;not null;default:0"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
