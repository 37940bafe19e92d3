package listings

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/pagination"
)

// Repository persists the cross-category listing index.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts the index row inside the caller's transaction so it commits
// together with the detail link and the outbox event.
func (r *Repository) CreateTx(tx *gorm.DB, listing *models.Listing) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(listing).Error
}

// FindByID loads a listing; soft-deleted rows are excluded by GORM.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// UpdateStatusTx flips the status inside the caller's transaction, guarded on
// the expected current status. Returns the number of rows changed; zero means
// the listing was missing or already transitioned.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.ListingStatus) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	res := tx.Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListSummaries pages through listings newest-first with a keyset cursor.
func (r *Repository) ListSummaries(ctx context.Context, input ListInput) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Listing{})

	filter := input.Filters
	if filter.Category != nil {
		qb = qb.Where("category = ?", *filter.Category)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		qb = qb.Where("LOWER(location_preview) LIKE ?", "%"+strings.ToLower(city)+"%")
	}
	if filter.Status != nil {
		qb = qb.Where("status = ?", *filter.Status)
	} else {
		qb = qb.Where("status = ?", enums.ListingStatusVerified)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		qb = qb.Where("LOWER(title_preview) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if input.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *input.OwnerID)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Listing
	err = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toSummary(row))
	}

	return &ListResult{Listings: summaries, NextCursor: nextCursor}, nil
}

func toSummary(listing models.Listing) Summary {
	coverURL := ""
	if len(listing.Media) > 0 {
		coverURL = listing.Media[0].URL
	}
	return Summary{
		ID:              listing.ID,
		Category:        listing.Category,
		Status:          listing.Status,
		TitlePreview:    listing.TitlePreview,
		LocationPreview: listing.LocationPreview,
		CoverURL:        coverURL,
		MediaCount:      len(listing.Media),
		CreatedAt:       listing.CreatedAt,
	}
}
