package submissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/internal/notifications"
	"github.com/roomscout/roomscout-backend/pkg/enums"
)

type fakeCounter struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeCounter) IncrementSubmissionCount(ctx context.Context, id uuid.UUID) error {
	f.calls = append(f.calls, id)
	return f.err
}

type fakeNotifier struct {
	calls []notifications.ReviewNotificationInput
	err   error
}

func (f *fakeNotifier) CreateReviewNotification(ctx context.Context, input notifications.ReviewNotificationInput) error {
	f.calls = append(f.calls, input)
	return f.err
}

func dispatchInput() DispatchInput {
	return DispatchInput{
		ListingID:    uuid.New(),
		OwnerID:      uuid.New(),
		OwnerEmail:   "owner@example.com",
		Category:     enums.CategoryRental,
		TitlePreview: "Sunny room near campus",
	}
}

func TestDispatchFiresBothEffects(t *testing.T) {
	counter := &fakeCounter{}
	notifier := &fakeNotifier{}
	effects := NewSideEffects(counter, notifier, time.Second, nil)

	input := dispatchInput()
	effects.Dispatch(context.Background(), input)

	if len(counter.calls) != 1 || counter.calls[0] != input.OwnerID {
		t.Fatalf("expected counter bumped for owner, got %+v", counter.calls)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected one review notification, got %d", len(notifier.calls))
	}
	if notifier.calls[0].ListingID != input.ListingID {
		t.Fatalf("expected listing id %s, got %s", input.ListingID, notifier.calls[0].ListingID)
	}
	if notifier.calls[0].OwnerEmail != "owner@example.com" {
		t.Fatalf("unexpected owner email %q", notifier.calls[0].OwnerEmail)
	}
}

func TestDispatchSwallowsFailures(t *testing.T) {
	counter := &fakeCounter{err: errors.New("db down")}
	notifier := &fakeNotifier{err: errors.New("db down")}
	effects := NewSideEffects(counter, notifier, time.Second, nil)

	effects.Dispatch(context.Background(), dispatchInput())

	if len(counter.calls) != 1 || len(notifier.calls) != 1 {
		t.Fatalf("expected both effects attempted despite failures")
	}
}

func TestDispatchToleratesNilDependencies(t *testing.T) {
	effects := NewSideEffects(nil, nil, 0, nil)
	effects.Dispatch(context.Background(), dispatchInput())
}
