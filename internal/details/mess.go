package details

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/internal/repo"
	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// MessStore persists mess_details rows.
type MessStore struct {
	repo.Base
}

// NewMessStore binds the mess adapter to the provided connection.
func NewMessStore(db *gorm.DB) *MessStore {
	return &MessStore{Base: repo.NewBase(db)}
}

func (s *MessStore) Category() enums.Category {
	return enums.CategoryMess
}

func (s *MessStore) Create(ctx context.Context, input Input) (uuid.UUID, error) {
	if input.Mess == nil {
		return uuid.Nil, fmt.Errorf("mess payload required")
	}
	row := models.MessDetail{
		OwnerID:        input.OwnerID,
		Title:          input.Title,
		Description:    input.Description,
		MealType:       input.Mess.MealType,
		MonthlyPrice:   input.Mess.MonthlyPrice,
		TrialAvailable: input.Mess.TrialAvailable,
		Timings:        input.Mess.Timings,
		Address:        input.Address,
		City:           input.City,
		Media:          input.Media,
	}
	if err := s.DB(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (s *MessStore) Link(tx *gorm.DB, detailID, listingID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.MessDetail{}).
		Where("id = ?", detailID).
		UpdateColumn("listing_id", listingID).Error
}

func (s *MessStore) Delete(ctx context.Context, detailID uuid.UUID) error {
	return s.DB(ctx).Delete(&models.MessDetail{}, "id = ?", detailID).Error
}

func (s *MessStore) FindByID(ctx context.Context, detailID uuid.UUID) (*Record, error) {
	var row models.MessDetail
	if err := s.DB(ctx).First(&row, "id = ?", detailID).Error; err != nil {
		return nil, err
	}
	return &Record{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Address:     row.Address,
		City:        row.City,
		Media:       row.Media,
		Attributes: map[string]any{
			"meal_type":       row.MealType,
			"monthly_price":   row.MonthlyPrice,
			"trial_available": row.TrialAvailable,
			"timings":         row.Timings,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *MessStore) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]OrphanDetail, error) {
	return listOrphans[models.MessDetail](s.DB(ctx), olderThan, limit, func(row models.MessDetail) OrphanDetail {
		return OrphanDetail{ID: row.ID, Media: row.Media, CreatedAt: row.CreatedAt}
	})
}
