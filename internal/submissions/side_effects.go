package submissions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/internal/notifications"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/logger"
)

const defaultSideEffectTimeout = 5 * time.Second

type submissionCounter interface {
	IncrementSubmissionCount(ctx context.Context, id uuid.UUID) error
}

type reviewNotifier interface {
	CreateReviewNotification(ctx context.Context, input notifications.ReviewNotificationInput) error
}

// DispatchInput carries the committed listing facts the side effects need.
type DispatchInput struct {
	ListingID    uuid.UUID
	OwnerID      uuid.UUID
	OwnerEmail   string
	Category     enums.Category
	TitlePreview string
}

// SideEffects runs the post-commit work that must never fail a submission:
// bumping the owner's submission counter and alerting reviewers. Both run in
// parallel under their own timeout; failures are logged and dropped.
type SideEffects struct {
	users    submissionCounter
	notifier reviewNotifier
	timeout  time.Duration
	logg     *logger.Logger
}

// NewSideEffects wires the post-commit dispatcher.
func NewSideEffects(users submissionCounter, notifier reviewNotifier, timeout time.Duration, logg *logger.Logger) *SideEffects {
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &SideEffects{users: users, notifier: notifier, timeout: timeout, logg: logg}
}

// Dispatch fires both side effects and waits for them to settle.
func (d *SideEffects) Dispatch(ctx context.Context, input DispatchInput) {
	var wg sync.WaitGroup

	if d.users != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			if err := d.users.IncrementSubmissionCount(callCtx, input.OwnerID); err != nil {
				d.logFailure(ctx, "submission counter update failed", input, err)
			}
		}()
	}

	if d.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			err := d.notifier.CreateReviewNotification(callCtx, notifications.ReviewNotificationInput{
				ListingID:    input.ListingID,
				Category:     input.Category,
				TitlePreview: input.TitlePreview,
				OwnerEmail:   input.OwnerEmail,
			})
			if err != nil {
				d.logFailure(ctx, "review notification failed", input, err)
			}
		}()
	}

	wg.Wait()
}

func (d *SideEffects) logFailure(ctx context.Context, msg string, input DispatchInput, err error) {
	if d.logg == nil {
		return
	}
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"listing_id": input.ListingID.String(),
		"owner_id":   input.OwnerID.String(),
	})
	d.logg.Error(logCtx, msg, err)
}
