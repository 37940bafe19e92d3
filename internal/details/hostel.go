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

// HostelStore persists hostel_details rows.
type HostelStore struct {
	repo.Base
}

// NewHostelStore binds the hostel adapter to the provided connection.
func NewHostelStore(db *gorm.DB) *HostelStore {
	return &HostelStore{Base: repo.NewBase(db)}
}

func (s *HostelStore) Category() enums.Category {
	return enums.CategoryHostel
}

func (s *HostelStore) Create(ctx context.Context, input Input) (uuid.UUID, error) {
	if input.Hostel == nil {
		return uuid.Nil, fmt.Errorf("hostel payload required")
	}
	row := models.HostelDetail{
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Gender:      input.Hostel.Gender,
		BedsPerRoom: input.Hostel.BedsPerRoom,
		MonthlyFee:  input.Hostel.MonthlyFee,
		Amenities:   input.Hostel.Amenities,
		Address:     input.Address,
		City:        input.City,
		Media:       input.Media,
	}
	if err := s.DB(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (s *HostelStore) Link(tx *gorm.DB, detailID, listingID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.HostelDetail{}).
		Where("id = ?", detailID).
		UpdateColumn("listing_id", listingID).Error
}

func (s *HostelStore) Delete(ctx context.Context, detailID uuid.UUID) error {
	return s.DB(ctx).Delete(&models.HostelDetail{}, "id = ?", detailID).Error
}

func (s *HostelStore) FindByID(ctx context.Context, detailID uuid.UUID) (*Record, error) {
	var row models.HostelDetail
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
			"gender":        row.Gender,
			"beds_per_room": row.BedsPerRoom,
			"monthly_fee":   row.MonthlyFee,
			"amenities":     row.Amenities,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *HostelStore) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]OrphanDetail, error) {
	return listOrphans[models.HostelDetail](s.DB(ctx), olderThan, limit, func(row models.HostelDetail) OrphanDetail {
		return OrphanDetail{ID: row.ID, Media: row.Media, CreatedAt: row.CreatedAt}
	})
}
