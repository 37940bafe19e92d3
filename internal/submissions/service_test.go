package submissions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/internal/listings"
	"github.com/roomscout/roomscout-backend/internal/uploads"
	"github.com/roomscout/roomscout-backend/pkg/db/models"
	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
	"github.com/roomscout/roomscout-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type fakeUploader struct {
	refs        []dbtypes.MediaRef
	uploadErr   error
	uploadCalls int
	cleaned     [][]dbtypes.MediaRef
}

func (f *fakeUploader) UploadBatch(ctx context.Context, listingID uuid.UUID, files []uploads.File) ([]dbtypes.MediaRef, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.refs != nil {
		return f.refs, nil
	}
	refs := make([]dbtypes.MediaRef, len(files))
	for i := range files {
		key := fmt.Sprintf("listings/%s/%d", listingID, i)
		refs[i] = dbtypes.MediaRef{URL: "https://storage.googleapis.com/bucket/" + key, ObjectKey: key}
	}
	return refs, nil
}

func (f *fakeUploader) Cleanup(ctx context.Context, refs []dbtypes.MediaRef) error {
	copied := make([]dbtypes.MediaRef, len(refs))
	copy(copied, refs)
	f.cleaned = append(f.cleaned, copied)
	return nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []DispatchInput
	notify     chan DispatchInput
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{notify: make(chan DispatchInput, 4)}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, input DispatchInput) {
	f.mu.Lock()
	f.dispatched = append(f.dispatched, input)
	f.mu.Unlock()
	f.notify <- input
}

func (f *fakeDispatcher) await(t *testing.T) DispatchInput {
	t.Helper()
	select {
	case input := <-f.notify:
		return input
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for side effect dispatch")
		return DispatchInput{}
	}
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatched)
}

type failingStore struct {
	details.Store
	createErr error
	linkErr   error
	deleted   []uuid.UUID
}

func (s *failingStore) Create(ctx context.Context, input details.Input) (uuid.UUID, error) {
	if s.createErr != nil {
		return uuid.Nil, s.createErr
	}
	return s.Store.Create(ctx, input)
}

func (s *failingStore) Link(tx *gorm.DB, detailID, listingID uuid.UUID) error {
	if s.linkErr != nil {
		return s.linkErr
	}
	return s.Store.Link(tx, detailID, listingID)
}

func (s *failingStore) Delete(ctx context.Context, detailID uuid.UUID) error {
	s.deleted = append(s.deleted, detailID)
	return s.Store.Delete(ctx, detailID)
}

type failingIndexRepo struct {
	err error
}

func (r *failingIndexRepo) CreateTx(tx *gorm.DB, listing *models.Listing) error {
	return r.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Listing{},
		&models.RentalDetail{},
		&models.MessDetail{},
		&models.HostelDetail{},
		&models.CoachingDetail{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

type harness struct {
	db         *gorm.DB
	uploader   *fakeUploader
	dispatcher *fakeDispatcher
	rental     *failingStore
	coord      *Coordinator
}

func newHarness(t *testing.T, index indexRepository) *harness {
	t.Helper()
	db := newTestDB(t)
	rental := &failingStore{Store: details.NewRentalStore(db)}
	registry, err := details.NewRegistry(
		rental,
		details.NewMessStore(db),
		details.NewHostelStore(db),
		details.NewCoachingStore(db),
	)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	if index == nil {
		index = listings.NewRepository(db)
	}
	uploader := &fakeUploader{}
	dispatcher := newFakeDispatcher()
	events := outbox.NewService(outbox.NewRepository(db), nil)
	coord, err := NewCoordinator(uploader, registry, index, gormTxRunner{db: db}, events, dispatcher, nil, nil)
	if err != nil {
		t.Fatalf("failed to build coordinator: %v", err)
	}
	return &harness{db: db, uploader: uploader, dispatcher: dispatcher, rental: rental, coord: coord}
}

func rentalSubmission(owner uuid.UUID) Input {
	return Input{
		Category:   enums.CategoryRental,
		OwnerID:    owner,
		OwnerEmail: "owner@example.com",
		Detail: details.Input{
			Title:       "Sunny room near campus",
			Description: "South-facing room with attached bath.",
			Address:     "12 College Road",
			City:        "Pune",
			Rental: &details.RentalInput{
				RoomType:    "single",
				MonthlyRent: decimal.NewFromInt(8500),
				Deposit:     decimal.NewFromInt(17000),
			},
		},
		Files: []uploads.File{
			{Name: "front.jpg", ContentType: "image/jpeg", SizeBytes: 10},
			{Name: "room.jpg", ContentType: "image/jpeg", SizeBytes: 10},
		},
	}
}

func TestSubmitCommitsListingDetailAndEvent(t *testing.T) {
	h := newHarness(t, nil)
	owner := uuid.New()

	result, err := h.coord.Submit(context.Background(), rentalSubmission(owner))
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if result.ListingID == uuid.Nil || result.DetailID == uuid.Nil {
		t.Fatalf("expected committed ids, got %+v", result)
	}

	var listing models.Listing
	if err := h.db.First(&listing, "id = ?", result.ListingID).Error; err != nil {
		t.Fatalf("failed to load listing: %v", err)
	}
	if listing.Status != enums.ListingStatusPending {
		t.Fatalf("expected pending status, got %s", listing.Status)
	}
	if listing.DetailID != result.DetailID {
		t.Fatalf("expected detail id %s, got %s", result.DetailID, listing.DetailID)
	}
	if len(listing.Media) != 2 {
		t.Fatalf("expected 2 media refs, got %d", len(listing.Media))
	}

	var detail models.RentalDetail
	if err := h.db.First(&detail, "id = ?", result.DetailID).Error; err != nil {
		t.Fatalf("failed to load detail: %v", err)
	}
	if detail.ListingID == nil || *detail.ListingID != result.ListingID {
		t.Fatalf("expected detail linked to listing, got %v", detail.ListingID)
	}

	var events []models.OutboxEvent
	if err := h.db.Find(&events).Error; err != nil {
		t.Fatalf("failed to load events: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.OutboxEventListingSubmitted {
		t.Fatalf("expected one listing.submitted event, got %+v", events)
	}

	dispatched := h.dispatcher.await(t)
	if dispatched.ListingID != result.ListingID {
		t.Fatalf("unexpected dispatch payload %+v", dispatched)
	}
	if got := h.dispatcher.count(); got != 1 {
		t.Fatalf("expected side effects dispatched once, got %d", got)
	}
	if len(h.uploader.cleaned) != 0 {
		t.Fatalf("expected no cleanup on success, got %d", len(h.uploader.cleaned))
	}
}

type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
	input   DispatchInput
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, input DispatchInput) {
	d.input = input
	close(d.started)
	<-d.release
}

func TestSubmitReturnsWhileSideEffectsStillRunning(t *testing.T) {
	db := newTestDB(t)
	registry, err := details.NewRegistry(
		details.NewRentalStore(db),
		details.NewMessStore(db),
		details.NewHostelStore(db),
		details.NewCoachingStore(db),
	)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	dispatcher := &blockingDispatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	events := outbox.NewService(outbox.NewRepository(db), nil)
	coord, err := NewCoordinator(&fakeUploader{}, registry, listings.NewRepository(db), gormTxRunner{db: db}, events, dispatcher, nil, nil)
	if err != nil {
		t.Fatalf("failed to build coordinator: %v", err)
	}

	type submitResult struct {
		result *Result
		err    error
	}
	done := make(chan submitResult, 1)
	go func() {
		result, err := coord.Submit(context.Background(), rentalSubmission(uuid.New()))
		done <- submitResult{result: result, err: err}
	}()

	var committed submitResult
	select {
	case committed = <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("submit blocked on side effect dispatch")
	}
	if committed.err != nil {
		t.Fatalf("failed to submit: %v", committed.err)
	}

	select {
	case <-dispatcher.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("side effects never dispatched")
	}
	close(dispatcher.release)

	if dispatcher.input.ListingID != committed.result.ListingID {
		t.Fatalf("expected dispatch for listing %s, got %+v", committed.result.ListingID, dispatcher.input)
	}
}

func TestSubmitUnknownCategoryHasZeroSideEffects(t *testing.T) {
	h := newHarness(t, nil)

	input := rentalSubmission(uuid.New())
	input.Category = enums.Category("garage")

	_, err := h.coord.Submit(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if h.uploader.uploadCalls != 0 {
		t.Fatalf("expected no upload attempts, got %d", h.uploader.uploadCalls)
	}
	assertNoRows(t, h.db)
}

func TestSubmitMismatchedPayloadRejected(t *testing.T) {
	h := newHarness(t, nil)

	input := rentalSubmission(uuid.New())
	input.Detail.Rental = nil
	input.Detail.Mess = &details.MessInput{MealType: "veg", MonthlyPrice: decimal.NewFromInt(3000)}

	_, err := h.coord.Submit(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if h.uploader.uploadCalls != 0 {
		t.Fatalf("expected no upload attempts, got %d", h.uploader.uploadCalls)
	}
}

func TestSubmitPartialUploadFailureCleansCompletedBlobs(t *testing.T) {
	h := newHarness(t, nil)
	completed := []dbtypes.MediaRef{{URL: "u0", ObjectKey: "listings/x/0"}}
	h.uploader.uploadErr = &uploads.PartialUploadError{
		Failed:    "room.jpg",
		Completed: completed,
		Err:       errors.New("storage 500"),
	}

	_, err := h.coord.Submit(context.Background(), rentalSubmission(uuid.New()))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUploadFailed {
		t.Fatalf("expected UPLOAD_FAILED, got %v", err)
	}

	if len(h.uploader.cleaned) != 1 {
		t.Fatalf("expected one cleanup call, got %d", len(h.uploader.cleaned))
	}
	if h.uploader.cleaned[0][0].ObjectKey != "listings/x/0" {
		t.Fatalf("expected completed ref cleaned, got %+v", h.uploader.cleaned[0])
	}
	assertNoRows(t, h.db)
}

func TestSubmitUploadTimeoutSurfacesTimeoutCode(t *testing.T) {
	h := newHarness(t, nil)
	h.uploader.uploadErr = &uploads.BatchTimeoutError{
		Completed: []dbtypes.MediaRef{{URL: "u0", ObjectKey: "listings/x/0"}},
	}

	_, err := h.coord.Submit(context.Background(), rentalSubmission(uuid.New()))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUploadTimeout {
		t.Fatalf("expected UPLOAD_TIMEOUT, got %v", err)
	}
	if len(h.uploader.cleaned) != 1 {
		t.Fatalf("expected completed refs cleaned, got %d calls", len(h.uploader.cleaned))
	}
	assertNoRows(t, h.db)
}

func TestSubmitDetailWriteFailureCleansBlobs(t *testing.T) {
	h := newHarness(t, nil)
	h.rental.createErr = errors.New("insert failed")

	_, err := h.coord.Submit(context.Background(), rentalSubmission(uuid.New()))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}

	if len(h.uploader.cleaned) != 1 {
		t.Fatalf("expected uploaded blobs cleaned, got %d calls", len(h.uploader.cleaned))
	}
	if len(h.uploader.cleaned[0]) != 2 {
		t.Fatalf("expected both refs cleaned, got %d", len(h.uploader.cleaned[0]))
	}
	assertNoRows(t, h.db)
}

func TestSubmitIndexWriteFailureDeletesDetailAndBlobs(t *testing.T) {
	h := newHarness(t, &failingIndexRepo{err: errors.New("insert failed")})

	_, err := h.coord.Submit(context.Background(), rentalSubmission(uuid.New()))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}

	if len(h.rental.deleted) != 1 {
		t.Fatalf("expected detail compensation delete, got %d", len(h.rental.deleted))
	}
	if len(h.uploader.cleaned) != 1 {
		t.Fatalf("expected blob cleanup, got %d calls", len(h.uploader.cleaned))
	}
	assertNoRows(t, h.db)

	if h.dispatcher.count() != 0 {
		t.Fatalf("expected no side effects on failure")
	}
}

func TestSubmitLinkFailureRollsBackIndexRow(t *testing.T) {
	h := newHarness(t, nil)
	h.rental.linkErr = errors.New("link failed")

	_, err := h.coord.Submit(context.Background(), rentalSubmission(uuid.New()))
	if err == nil {
		t.Fatalf("expected error")
	}

	var listingCount int64
	if err := h.db.Model(&models.Listing{}).Count(&listingCount).Error; err != nil {
		t.Fatalf("failed to count listings: %v", err)
	}
	if listingCount != 0 {
		t.Fatalf("expected transaction rollback to remove listing, got %d rows", listingCount)
	}
	if len(h.rental.deleted) != 1 {
		t.Fatalf("expected detail compensated, got %d deletes", len(h.rental.deleted))
	}
}

func TestSubmitFileCountBounds(t *testing.T) {
	h := newHarness(t, nil)

	input := rentalSubmission(uuid.New())
	input.Files = nil
	if _, err := h.coord.Submit(context.Background(), input); err == nil {
		t.Fatalf("expected error for zero files")
	}

	input = rentalSubmission(uuid.New())
	input.Files = make([]uploads.File, 7)
	for i := range input.Files {
		input.Files[i] = uploads.File{Name: "a.jpg", ContentType: "image/jpeg", SizeBytes: 1}
	}
	if _, err := h.coord.Submit(context.Background(), input); err == nil {
		t.Fatalf("expected error for seven files")
	}
	if h.uploader.uploadCalls != 0 {
		t.Fatalf("expected validation before upload, got %d calls", h.uploader.uploadCalls)
	}
}

func TestSubmitCompensationIsIdempotent(t *testing.T) {
	h := newHarness(t, &failingIndexRepo{err: errors.New("insert failed")})
	ctx := context.Background()

	_, _ = h.coord.Submit(ctx, rentalSubmission(uuid.New()))
	firstDeletes := len(h.rental.deleted)

	// Deleting the same detail again must not error.
	if firstDeletes != 1 {
		t.Fatalf("expected one compensation delete, got %d", firstDeletes)
	}
	if err := h.rental.Store.Delete(ctx, h.rental.deleted[0]); err != nil {
		t.Fatalf("expected repeat delete to succeed: %v", err)
	}

	var detailCount int64
	if err := h.db.Model(&models.RentalDetail{}).Count(&detailCount).Error; err != nil {
		t.Fatalf("failed to count details: %v", err)
	}
	if detailCount != 0 {
		t.Fatalf("expected no detail rows, got %d", detailCount)
	}
}

func assertNoRows(t *testing.T, db *gorm.DB) {
	t.Helper()
	var listingCount, detailCount, eventCount int64
	if err := db.Model(&models.Listing{}).Count(&listingCount).Error; err != nil {
		t.Fatalf("failed to count listings: %v", err)
	}
	if err := db.Model(&models.RentalDetail{}).Count(&detailCount).Error; err != nil {
		t.Fatalf("failed to count details: %v", err)
	}
	if err := db.Model(&models.OutboxEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if listingCount != 0 || detailCount != 0 || eventCount != 0 {
		t.Fatalf("expected no durable rows, got listings=%d details=%d events=%d", listingCount, detailCount, eventCount)
	}
}
