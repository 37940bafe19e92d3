package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/internal/uploads"
	"github.com/roomscout/roomscout-backend/pkg/db/models"
	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/metrics"
	"github.com/roomscout/roomscout-backend/pkg/outbox"
	"github.com/roomscout/roomscout-backend/pkg/outbox/payloads"
)

// Saga step names reported through error details and metrics labels.
const (
	stepValidation  = "validation"
	stepUpload      = "upload"
	stepDetailWrite = "detail_write"
	stepIndexWrite  = "index_write"
	stepCommitted   = "committed"

	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

type uploader interface {
	UploadBatch(ctx context.Context, listingID uuid.UUID, files []uploads.File) ([]dbtypes.MediaRef, error)
	Cleanup(ctx context.Context, refs []dbtypes.MediaRef) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type indexRepository interface {
	CreateTx(tx *gorm.DB, listing *models.Listing) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sideEffectDispatcher interface {
	Dispatch(ctx context.Context, input DispatchInput)
}

// Coordinator drives a submission from upload through the index transaction.
// Each step that fails triggers compensation of everything already durable;
// the detail record is intentionally written outside the index transaction, so
// a crash between the two leaves an orphan for the reconciliation sweep.
type Coordinator struct {
	uploader uploader
	registry *details.Registry
	index    indexRepository
	db       txRunner
	events   eventEmitter
	effects  sideEffectDispatcher
	metrics  *metrics.SubmissionMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewCoordinator wires the submission saga.
func NewCoordinator(
	uploader uploader,
	registry *details.Registry,
	index indexRepository,
	db txRunner,
	events eventEmitter,
	effects sideEffectDispatcher,
	m *metrics.SubmissionMetrics,
	logg *logger.Logger,
) (*Coordinator, error) {
	if uploader == nil {
		return nil, errors.New("uploader required")
	}
	if registry == nil {
		return nil, errors.New("detail registry required")
	}
	if index == nil {
		return nil, errors.New("index repository required")
	}
	if db == nil {
		return nil, errors.New("transaction runner required")
	}
	if events == nil {
		return nil, errors.New("event emitter required")
	}
	return &Coordinator{
		uploader: uploader,
		registry: registry,
		index:    index,
		db:       db,
		events:   events,
		effects:  effects,
		metrics:  m,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Submit runs the commit saga and returns the committed ids. On any failure it
// compensates already-durable artifacts before returning.
func (c *Coordinator) Submit(ctx context.Context, input Input) (*Result, error) {
	if err := input.validate(); err != nil {
		c.observeStage(stepValidation, outcomeFailed)
		return nil, err
	}
	store, err := c.registry.For(input.Category)
	if err != nil {
		c.observeStage(stepValidation, outcomeFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown listing category")
	}
	c.observeStage(stepValidation, outcomeOK)

	listingID := uuid.New()
	logCtx := c.logCtx(ctx, listingID, input)

	refs, err := c.uploader.UploadBatch(ctx, listingID, input.Files)
	if err != nil {
		c.observeStage(stepUpload, outcomeFailed)
		return nil, c.failUpload(logCtx, err)
	}
	c.observeStage(stepUpload, outcomeOK)

	detailInput := input.Detail
	detailInput.OwnerID = input.OwnerID
	detailInput.Media = refs

	detailID, err := store.Create(ctx, detailInput)
	if err != nil {
		c.observeStage(stepDetailWrite, outcomeFailed)
		c.compensate(logCtx, stepDetailWrite, nil, uuid.Nil, refs)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to write detail record").
			WithDetails(map[string]any{"step": stepDetailWrite})
	}
	c.observeStage(stepDetailWrite, outcomeOK)

	listing := models.Listing{
		ID:              listingID,
		OwnerID:         input.OwnerID,
		OwnerEmail:      input.OwnerEmail,
		Category:        input.Category,
		Status:          enums.ListingStatusPending,
		Media:           refs,
		DetailID:        detailID,
		TitlePreview:    titlePreview(input.Detail.Title),
		LocationPreview: input.Detail.City,
	}

	err = c.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.index.CreateTx(tx, &listing); err != nil {
			return fmt.Errorf("create index record: %w", err)
		}
		if err := store.Link(tx, detailID, listingID); err != nil {
			return fmt.Errorf("link detail record: %w", err)
		}
		return c.events.Emit(ctx, tx, c.submittedEvent(listing))
	})
	if err != nil {
		c.observeStage(stepIndexWrite, outcomeFailed)
		c.compensate(logCtx, stepIndexWrite, store, detailID, refs)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to commit listing").
			WithDetails(map[string]any{"step": stepIndexWrite})
	}
	c.observeStage(stepIndexWrite, outcomeOK)
	c.observeStage(stepCommitted, outcomeOK)

	if c.logg != nil {
		c.logg.Info(logCtx, "submission committed")
	}

	if c.effects != nil {
		// Side effects must never delay the caller's response.
		go c.effects.Dispatch(context.WithoutCancel(ctx), DispatchInput{
			ListingID:    listingID,
			OwnerID:      input.OwnerID,
			OwnerEmail:   input.OwnerEmail,
			Category:     input.Category,
			TitlePreview: listing.TitlePreview,
		})
	}

	return &Result{ListingID: listingID, DetailID: detailID}, nil
}

func (c *Coordinator) failUpload(ctx context.Context, err error) error {
	var timeout *uploads.BatchTimeoutError
	if errors.As(err, &timeout) {
		c.compensate(ctx, stepUpload, nil, uuid.Nil, timeout.Completed)
		return pkgerrors.Wrap(pkgerrors.CodeUploadTimeout, err, "media upload timed out").
			WithDetails(map[string]any{"step": stepUpload})
	}
	var partial *uploads.PartialUploadError
	if errors.As(err, &partial) {
		c.compensate(ctx, stepUpload, nil, uuid.Nil, partial.Completed)
		return pkgerrors.Wrap(pkgerrors.CodeUploadFailed, err, "media upload failed").
			WithDetails(map[string]any{"step": stepUpload, "file": partial.Failed})
	}
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeUploadFailed, err, "media upload failed").
		WithDetails(map[string]any{"step": stepUpload})
}

// compensate undoes the durable artifacts of a failed saga: the detail record
// first, then the uploaded blobs. Best-effort and idempotent; outcomes are
// aggregated and logged, never returned to the caller.
func (c *Coordinator) compensate(ctx context.Context, step string, store details.Store, detailID uuid.UUID, refs []dbtypes.MediaRef) {
	cleanupCtx := context.WithoutCancel(ctx)

	var errs error
	if store != nil && detailID != uuid.Nil {
		if err := store.Delete(cleanupCtx, detailID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete detail %s: %w", detailID, err))
			c.observeCompensation(stepDetailWrite)
		}
	}
	if len(refs) > 0 {
		if err := c.uploader.Cleanup(cleanupCtx, refs); err != nil {
			errs = multierr.Append(errs, err)
			c.observeCompensation(stepUpload)
		}
	}

	if errs != nil && c.logg != nil {
		logCtx := c.logg.WithFields(cleanupCtx, map[string]any{"step": step})
		c.logg.Error(logCtx, "submission compensation incomplete", errs)
	}
}

func (c *Coordinator) submittedEvent(listing models.Listing) outbox.DomainEvent {
	now := c.now().UTC()
	return outbox.DomainEvent{
		EventType:     enums.OutboxEventListingSubmitted,
		AggregateType: enums.OutboxAggregateListing,
		AggregateID:   listing.ID,
		Actor:         &outbox.ActorRef{UserID: listing.OwnerID, Role: string(enums.UserRoleMember)},
		Version:       1,
		OccurredAt:    now,
		Data: payloads.ListingSubmittedEvent{
			ListingID:    listing.ID,
			OwnerID:      listing.OwnerID,
			OwnerEmail:   listing.OwnerEmail,
			Category:     listing.Category,
			DetailID:     listing.DetailID,
			TitlePreview: listing.TitlePreview,
			MediaCount:   len(listing.Media),
			SubmittedAt:  now,
		},
	}
}

func (c *Coordinator) logCtx(ctx context.Context, listingID uuid.UUID, input Input) context.Context {
	if c.logg == nil {
		return ctx
	}
	return c.logg.WithFields(ctx, map[string]any{
		"listing_id": listingID.String(),
		"owner_id":   input.OwnerID.String(),
		"category":   string(input.Category),
	})
}

func (c *Coordinator) observeStage(stage, outcome string) {
	if c.metrics != nil {
		c.metrics.IncStage(stage, outcome)
	}
}

func (c *Coordinator) observeCompensation(step string) {
	if c.metrics != nil {
		c.metrics.IncCompensationFailure(step)
	}
}
