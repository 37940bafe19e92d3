package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/pkg/enums"
)

// ListingSubmittedEvent signals a committed submission awaiting review.
type ListingSubmittedEvent struct {
	ListingID    uuid.UUID      `json:"listing_id"`
	OwnerID      uuid.UUID      `json:"owner_id"`
	OwnerEmail   string         `json:"owner_email"`
	Category     enums.Category `json:"category"`
	DetailID     uuid.UUID      `json:"detail_id"`
	TitlePreview string         `json:"title_preview"`
	MediaCount   int            `json:"media_count"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

// ListingVerifiedEvent is emitted when a reviewer approves a listing.
type ListingVerifiedEvent struct {
	ListingID    uuid.UUID      `json:"listing_id"`
	OwnerID      uuid.UUID      `json:"owner_id"`
	Category     enums.Category `json:"category"`
	TitlePreview string         `json:"title_preview"`
	ReviewerID   uuid.UUID      `json:"reviewer_id"`
	VerifiedAt   time.Time      `json:"verified_at"`
}

// ListingRejectedEvent is emitted when a reviewer rejects a listing.
type ListingRejectedEvent struct {
	ListingID    uuid.UUID      `json:"listing_id"`
	OwnerID      uuid.UUID      `json:"owner_id"`
	Category     enums.Category `json:"category"`
	TitlePreview string         `json:"title_preview"`
	ReviewerID   uuid.UUID      `json:"reviewer_id"`
	Reason       string         `json:"reason,omitempty"`
	RejectedAt   time.Time      `json:"rejected_at"`
}
