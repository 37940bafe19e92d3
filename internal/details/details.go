package details

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// Input carries the category-agnostic fields plus exactly one category payload.
type Input struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Address     string
	City        string
	Media       dbtypes.MediaRefs

	Rental   *RentalInput
	Mess     *MessInput
	Hostel   *HostelInput
	Coaching *CoachingInput
}

// RentalInput holds rental-room specific attributes.
type RentalInput struct {
	RoomType      string
	MonthlyRent   decimal.Decimal
	Deposit       decimal.Decimal
	Furnished     bool
	AvailableFrom *time.Time
}

// MessInput holds mess-service specific attributes.
type MessInput struct {
	MealType       string
	MonthlyPrice   decimal.Decimal
	TrialAvailable bool
	Timings        string
}

// HostelInput holds hostel-bed specific attributes.
type HostelInput struct {
	Gender      string
	BedsPerRoom int
	MonthlyFee  decimal.Decimal
	Amenities   string
}

// CoachingInput holds coaching-class specific attributes.
type CoachingInput struct {
	Subjects   string
	MonthlyFee decimal.Decimal
	BatchSize  int
	Mode       string
}

// Record is the category-neutral read shape returned to controllers.
type Record struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	Media       dbtypes.MediaRefs `json:"media"`
	Attributes  map[string]any    `json:"attributes"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrphanDetail is a detail row never claimed by an index record.
type OrphanDetail struct {
	ID        uuid.UUID
	Media     dbtypes.MediaRefs
	CreatedAt time.Time
}

// Store persists one category's detail records. Create commits immediately;
// Link runs inside the index transaction so the reference and the index row
// land together.
type Store interface {
	Category() enums.Category
	Create(ctx context.Context, input Input) (uuid.UUID, error)
	Link(tx *gorm.DB, detailID, listingID uuid.UUID) error
	Delete(ctx context.Context, detailID uuid.UUID) error
	FindByID(ctx context.Context, detailID uuid.UUID) (*Record, error)
	ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]OrphanDetail, error)
}

// Registry binds each category to its store at startup. Lookups never touch
// the database.
type Registry struct {
	stores map[enums.Category]Store
}

// NewRegistry builds the category registry; every category must be bound
// exactly once.
func NewRegistry(stores ...Store) (*Registry, error) {
	bound := make(map[enums.Category]Store, len(stores))
	for _, store := range stores {
		if store == nil {
			return nil, fmt.Errorf("nil detail store")
		}
		category := store.Category()
		if !category.IsValid() {
			return nil, fmt.Errorf("store has invalid category %q", category)
		}
		if _, exists := bound[category]; exists {
			return nil, fmt.Errorf("duplicate detail store for category %q", category)
		}
		bound[category] = store
	}
	for _, category := range enums.Categories() {
		if _, ok := bound[category]; !ok {
			return nil, fmt.Errorf("no detail store bound for category %q", category)
		}
	}
	return &Registry{stores: bound}, nil
}

// For returns the store bound to the given category.
func (r *Registry) For(category enums.Category) (Store, error) {
	store, ok := r.stores[category]
	if !ok {
		return nil, fmt.Errorf("no detail store for category %q", category)
	}
	return store, nil
}
