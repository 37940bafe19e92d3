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

// RentalStore persists rental_details rows.
type RentalStore struct {
	repo.Base
}

// NewRentalStore binds the rental adapter to the provided connection.
func NewRentalStore(db *gorm.DB) *RentalStore {
	return &RentalStore{Base: repo.NewBase(db)}
}

func (s *RentalStore) Category() enums.Category {
	return enums.CategoryRental
}

func (s *RentalStore) Create(ctx context.Context, input Input) (uuid.UUID, error) {
	if input.Rental == nil {
		return uuid.Nil, fmt.Errorf("rental payload required")
	}
	row := models.RentalDetail{
		OwnerID:       input.OwnerID,
		Title:         input.Title,
		Description:   input.Description,
		RoomType:      input.Rental.RoomType,
		MonthlyRent:   input.Rental.MonthlyRent,
		Deposit:       input.Rental.Deposit,
		Furnished:     input.Rental.Furnished,
		Address:       input.Address,
		City:          input.City,
		AvailableFrom: input.Rental.AvailableFrom,
		Media:         input.Media,
	}
	if err := s.DB(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (s *RentalStore) Link(tx *gorm.DB, detailID, listingID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.RentalDetail{}).
		Where("id = ?", detailID).
		UpdateColumn("listing_id", listingID).Error
}

func (s *RentalStore) Delete(ctx context.Context, detailID uuid.UUID) error {
	return s.DB(ctx).Delete(&models.RentalDetail{}, "id = ?", detailID).Error
}

func (s *RentalStore) FindByID(ctx context.Context, detailID uuid.UUID) (*Record, error) {
	var row models.RentalDetail
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
			"room_type":      row.RoomType,
			"monthly_rent":   row.MonthlyRent,
			"deposit":        row.Deposit,
			"furnished":      row.Furnished,
			"available_from": row.AvailableFrom,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *RentalStore) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]OrphanDetail, error) {
	return listOrphans[models.RentalDetail](s.DB(ctx), olderThan, limit, func(row models.RentalDetail) OrphanDetail {
		return OrphanDetail{ID: row.ID, Media: row.Media, CreatedAt: row.CreatedAt}
	})
}

func listOrphans[T any](db *gorm.DB, olderThan time.Time, limit int, convert func(T) OrphanDetail) ([]OrphanDetail, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []T
	err := db.Model(new(T)).
		Where("listing_id IS NULL AND created_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	orphans := make([]OrphanDetail, 0, len(rows))
	for _, row := range rows {
		orphans = append(orphans, convert(row))
	}
	return orphans, nil
}
