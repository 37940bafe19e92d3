package listings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
)

// Detail is the full read shape for a single listing: the index row plus the
// category-specific record resolved through the detail registry.
type Detail struct {
	Summary
	OwnerID     uuid.UUID      `json:"owner_id"`
	Description string         `json:"description"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	Attributes  map[string]any `json:"attributes"`
	Media       []mediaRefView `json:"media"`
}

type mediaRefView struct {
	URL string `json:"url"`
}

// Viewer carries the identity used for visibility decisions on read paths.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (v Viewer) canSee(listing *models.Listing) bool {
	if listing.Status == enums.ListingStatusVerified {
		return true
	}
	if v.UserID == listing.OwnerID {
		return true
	}
	return v.Role == enums.UserRoleReviewer || v.Role == enums.UserRoleAdmin
}

// Service exposes the read side of the listing index.
type Service struct {
	repo     *Repository
	registry *details.Registry
}

// NewService wires the listing read service.
func NewService(repo *Repository, registry *details.Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

// Browse returns a page of listings. Unless the caller filters explicitly,
// only verified listings are visible.
func (s *Service) Browse(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Filters.Category != nil && !input.Filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
	}
	result, err := s.repo.ListSummaries(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list listings")
	}
	return result, nil
}

// GetDetail resolves the index row and its category detail record. Pending and
// rejected listings are visible only to their owner and to reviewers.
func (s *Service) GetDetail(ctx context.Context, listingID uuid.UUID, viewer Viewer) (*Detail, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load listing")
	}
	if !viewer.canSee(listing) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}

	store, err := s.registry.For(listing.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "no store for listing category")
	}
	record, err := store.FindByID(ctx, listing.DetailID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing detail not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load listing detail")
	}

	media := make([]mediaRefView, 0, len(listing.Media))
	for _, ref := range listing.Media {
		media = append(media, mediaRefView{URL: ref.URL})
	}

	return &Detail{
		Summary:     toSummary(*listing),
		OwnerID:     listing.OwnerID,
		Description: record.Description,
		Address:     record.Address,
		City:        record.City,
		Attributes:  record.Attributes,
		Media:       media,
	}, nil
}
