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

// CoachingStore persists coaching_details rows.
type CoachingStore struct {
	repo.Base
}

// NewCoachingStore binds the coaching adapter to the provided connection.
func NewCoachingStore(db *gorm.DB) *CoachingStore {
	return &CoachingStore{Base: repo.NewBase(db)}
}

func (s *CoachingStore) Category() enums.Category {
	return enums.CategoryCoaching
}

func (s *CoachingStore) Create(ctx context.Context, input Input) (uuid.UUID, error) {
	if input.Coaching == nil {
		return uuid.Nil, fmt.Errorf("coaching payload required")
	}
	row := models.CoachingDetail{
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Subjects:    input.Coaching.Subjects,
		MonthlyFee:  input.Coaching.MonthlyFee,
		BatchSize:   input.Coaching.BatchSize,
		Mode:        input.Coaching.Mode,
		Address:     input.Address,
		City:        input.City,
		Media:       input.Media,
	}
	if err := s.DB(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (s *CoachingStore) Link(tx *gorm.DB, detailID, listingID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.CoachingDetail{}).
		Where("id = ?", detailID).
		UpdateColumn("listing_id", listingID).Error
}

func (s *CoachingStore) Delete(ctx context.Context, detailID uuid.UUID) error {
	return s.DB(ctx).Delete(&models.CoachingDetail{}, "id = ?", detailID).Error
}

func (s *CoachingStore) FindByID(ctx context.Context, detailID uuid.UUID) (*Record, error) {
	var row models.CoachingDetail
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
			"subjects":    row.Subjects,
			"monthly_fee": row.MonthlyFee,
			"batch_size":  row.BatchSize,
			"mode":        row.Mode,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *CoachingStore) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]OrphanDetail, error) {
	return listOrphans[models.CoachingDetail](s.DB(ctx), olderThan, limit, func(row models.CoachingDetail) OrphanDetail {
		return OrphanDetail{ID: row.ID, Media: row.Media, CreatedAt: row.CreatedAt}
	})
}
