package listings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/pkg/db/models"
	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
)

func newDetailDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	err := db.AutoMigrate(
		&models.RentalDetail{},
		&models.MessDetail{},
		&models.HostelDetail{},
		&models.CoachingDetail{},
	)
	if err != nil {
		t.Fatalf("failed to migrate detail tables: %v", err)
	}
	return db
}

func newReadService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	registry, err := details.NewRegistry(
		details.NewRentalStore(db),
		details.NewMessStore(db),
		details.NewHostelStore(db),
		details.NewCoachingStore(db),
	)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return NewService(NewRepository(db), registry)
}

func seedRentalListing(t *testing.T, db *gorm.DB, status enums.ListingStatus) models.Listing {
	t.Helper()
	owner := uuid.New()
	store := details.NewRentalStore(db)
	detailID, err := store.Create(context.Background(), details.Input{
		OwnerID:     owner,
		Title:       "Sunny room near campus",
		Description: "South-facing room with attached bath.",
		Address:     "12 College Road",
		City:        "Pune",
		Media:       dbtypes.MediaRefs{{URL: "u", ObjectKey: "k"}},
		Rental: &details.RentalInput{
			RoomType:    "single",
			MonthlyRent: decimal.NewFromInt(8500),
			Deposit:     decimal.NewFromInt(17000),
		},
	})
	if err != nil {
		t.Fatalf("failed to create detail: %v", err)
	}

	listing := models.Listing{
		ID:              uuid.New(),
		OwnerID:         owner,
		OwnerEmail:      "owner@example.com",
		Category:        enums.CategoryRental,
		Status:          status,
		Media:           dbtypes.MediaRefs{{URL: "u", ObjectKey: "k"}},
		DetailID:        detailID,
		TitlePreview:    "Sunny room near campus",
		LocationPreview: "Pune",
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return listing
}

func TestGetDetailJoinsCategoryRecord(t *testing.T) {
	db := newDetailDB(t)
	svc := newReadService(t, db)

	listing := seedRentalListing(t, db, enums.ListingStatusVerified)

	detail, err := svc.GetDetail(context.Background(), listing.ID, Viewer{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("failed to get detail: %v", err)
	}
	if detail.TitlePreview != "Sunny room near campus" {
		t.Fatalf("unexpected title %q", detail.TitlePreview)
	}
	if detail.City != "Pune" {
		t.Fatalf("unexpected city %q", detail.City)
	}
	if detail.Attributes["room_type"] != "single" {
		t.Fatalf("expected room_type attribute, got %v", detail.Attributes)
	}
	if len(detail.Media) != 1 {
		t.Fatalf("expected 1 media ref, got %d", len(detail.Media))
	}
}

func TestGetDetailHidesPendingFromStrangers(t *testing.T) {
	db := newDetailDB(t)
	svc := newReadService(t, db)

	listing := seedRentalListing(t, db, enums.ListingStatusPending)

	_, err := svc.GetDetail(context.Background(), listing.ID, Viewer{UserID: uuid.New(), Role: enums.UserRoleMember})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for stranger, got %v", err)
	}

	if _, err := svc.GetDetail(context.Background(), listing.ID, Viewer{UserID: listing.OwnerID}); err != nil {
		t.Fatalf("expected owner to see pending listing: %v", err)
	}

	if _, err := svc.GetDetail(context.Background(), listing.ID, Viewer{UserID: uuid.New(), Role: enums.UserRoleReviewer}); err != nil {
		t.Fatalf("expected reviewer to see pending listing: %v", err)
	}
}

func TestBrowseRejectsUnknownCategory(t *testing.T) {
	db := newDetailDB(t)
	svc := newReadService(t, db)

	bogus := enums.Category("garage")
	_, err := svc.Browse(context.Background(), ListInput{Filters: ListFilters{Category: &bogus}})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
