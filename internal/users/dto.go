package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// UserDTO is the transport shape for user profiles.
type UserDTO struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	DisplayName     string         `json:"display_name"`
	Role            enums.UserRole `json:"role"`
	SubmissionCount int64          `json:"submission_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email       string
	DisplayName string
	Role        enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Role:            u.Role,
		SubmissionCount: u.SubmissionCount,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// ToModel converts the create DTO into a persistable user row.
func (dto CreateUserDTO) ToModel() *models.User {
	role := dto.Role
	if role == "" {
		role = enums.UserRoleMember
	}
	return &models.User{
		Email:       dto.Email,
		DisplayName: dto.DisplayName,
		Role:        role,
	}
}
