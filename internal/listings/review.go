package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/outbox"
	"github.com/roomscout/roomscout-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ReviewInput identifies the listing and the reviewer acting on it.
type ReviewInput struct {
	ListingID  uuid.UUID
	ReviewerID uuid.UUID
	Reason     string
}

// ReviewService drives the pending → verified/rejected transition. The status
// flip and the outbox event commit in one transaction.
type ReviewService struct {
	db     txRunner
	repo   *Repository
	events eventEmitter
	logg   *logger.Logger
	now    func() time.Time
}

// NewReviewService wires the review workflow.
func NewReviewService(db txRunner, repo *Repository, events eventEmitter, logg *logger.Logger) *ReviewService {
	return &ReviewService{
		db:     db,
		repo:   repo,
		events: events,
		logg:   logg,
		now:    time.Now,
	}
}

// Verify approves a pending listing and emits listing.verified.
func (s *ReviewService) Verify(ctx context.Context, input ReviewInput) error {
	return s.transition(ctx, input, enums.ListingStatusVerified)
}

// Reject declines a pending listing and emits listing.rejected.
func (s *ReviewService) Reject(ctx context.Context, input ReviewInput) error {
	return s.transition(ctx, input, enums.ListingStatusRejected)
}

func (s *ReviewService) transition(ctx context.Context, input ReviewInput, target enums.ListingStatus) error {
	if input.ListingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.ReviewerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reviewer id required")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.First(&listing, "id = ?", input.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load listing")
		}
		if listing.Status != enums.ListingStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing already reviewed").
				WithDetails(map[string]any{"status": listing.Status})
		}

		rows, err := s.repo.UpdateStatusTx(tx, listing.ID, enums.ListingStatusPending, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update listing status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing already reviewed")
		}

		event := s.buildEvent(listing, input, target)
		if err := s.events.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to queue review event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"listing_id":  input.ListingID.String(),
			"reviewer_id": input.ReviewerID.String(),
			"status":      target,
		})
		s.logg.Info(logCtx, "listing review recorded")
	}
	return nil
}

func (s *ReviewService) buildEvent(listing models.Listing, input ReviewInput, target enums.ListingStatus) outbox.DomainEvent {
	now := s.now().UTC()
	actor := &outbox.ActorRef{UserID: input.ReviewerID, Role: string(enums.UserRoleReviewer)}

	if target == enums.ListingStatusVerified {
		return outbox.DomainEvent{
			EventType:     enums.OutboxEventListingVerified,
			AggregateType: enums.OutboxAggregateListing,
			AggregateID:   listing.ID,
			Actor:         actor,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.ListingVerifiedEvent{
				ListingID:    listing.ID,
				OwnerID:      listing.OwnerID,
				Category:     listing.Category,
				TitlePreview: listing.TitlePreview,
				ReviewerID:   input.ReviewerID,
				VerifiedAt:   now,
			},
		}
	}
	return outbox.DomainEvent{
		EventType:     enums.OutboxEventListingRejected,
		AggregateType: enums.OutboxAggregateListing,
		AggregateID:   listing.ID,
		Actor:         actor,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.ListingRejectedEvent{
			ListingID:    listing.ID,
			OwnerID:      listing.OwnerID,
			Category:     listing.Category,
			TitlePreview: listing.TitlePreview,
			ReviewerID:   input.ReviewerID,
			Reason:       input.Reason,
			RejectedAt:   now,
		},
	}
}
