package listings

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category *enums.Category      `json:"category,omitempty"`
	City     string               `json:"city,omitempty"`
	Status   *enums.ListingStatus `json:"status,omitempty"`
	Query    string               `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate and filter listings.
type ListInput struct {
	Filters    ListFilters
	OwnerID    *uuid.UUID
	Pagination pagination.Params
}

// Summary is the browse-page projection of a listing.
type Summary struct {
	ID              uuid.UUID           `json:"id"`
	Category        enums.Category      `json:"category"`
	Status          enums.ListingStatus `json:"status"`
	TitlePreview    string              `json:"title_preview"`
	LocationPreview string              `json:"location_preview"`
	CoverURL        string              `json:"cover_url,omitempty"`
	MediaCount      int                 `json:"media_count"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ListResult bundles a page of summaries with the next cursor.
type ListResult struct {
	Listings   []Summary `json:"listings"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
