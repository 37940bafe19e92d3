package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/internal/listings"
	pkgAuth "github.com/roomscout/roomscout-backend/pkg/auth"
	"github.com/roomscout/roomscout-backend/pkg/config"
	"github.com/roomscout/roomscout-backend/pkg/db/models"
	dbtypes "github.com/roomscout/roomscout-backend/pkg/db/types"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Listing{},
		&models.OutboxEvent{},
		&models.Notification{},
		&models.RentalDetail{},
		&models.MessDetail{},
		&models.HostelDetail{},
		&models.CoachingDetail{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T, cfg *config.Config, db *gorm.DB) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})

	registry, err := details.NewRegistry(
		details.NewRentalStore(db),
		details.NewMessStore(db),
		details.NewHostelStore(db),
		details.NewCoachingStore(db),
	)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	repo := listings.NewRepository(db)
	review := listings.NewReviewService(gormTxRunner{db: db}, repo, outbox.NewService(outbox.NewRepository(db), nil), logg)

	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		GCS:      stubPinger{},
		Listings: listings.NewService(repo, registry),
		Review:   review,
	})
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "user@roomscout.in",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func seedListing(t *testing.T, db *gorm.DB, owner uuid.UUID, status enums.ListingStatus) *models.Listing {
	t.Helper()
	rental := &models.RentalDetail{
		OwnerID: owner,
		Title:   "2BHK near the station",
		City:    "Pune",
	}
	if err := db.Create(rental).Error; err != nil {
		t.Fatalf("seed rental detail: %v", err)
	}

	listing := &models.Listing{
		OwnerID:         owner,
		OwnerEmail:      "user@roomscout.in",
		Category:        enums.CategoryRental,
		Status:          status,
		Media:           dbtypes.MediaRefs{{URL: "https://storage.test/one.jpg", ObjectKey: "one.jpg"}},
		DetailID:        rental.ID,
		TitlePreview:    "2BHK near the station",
		LocationPreview: "Pune",
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	if err := db.Model(&models.RentalDetail{}).Where("id = ?", rental.ID).UpdateColumn("listing_id", listing.ID).Error; err != nil {
		t.Fatalf("link detail: %v", err)
	}
	return listing
}

func TestHealthLive(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, newRouterDB(t))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-RoomScout-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-RoomScout-Env"))
	}
}

func TestHealthReadyReportsChecks(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, newRouterDB(t))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"database":"up"`) {
		t.Fatalf("expected database check in body: %s", resp.Body.String())
	}
}

func TestBrowseListingsIsPublic(t *testing.T) {
	cfg := testConfig()
	db := newRouterDB(t)
	router := newTestRouter(t, cfg, db)
	seedListing(t, db, uuid.New(), enums.ListingStatusVerified)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var result listings.ListResult
	decodeEnvelope(t, resp.Body.Bytes(), &result)
	if len(result.Listings) != 1 {
		t.Fatalf("expected one listing got %d", len(result.Listings))
	}
	if result.Listings[0].TitlePreview != "2BHK near the station" {
		t.Fatalf("unexpected title %q", result.Listings[0].TitlePreview)
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, newRouterDB(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListingDetailHidesPendingFromAnonymous(t *testing.T) {
	cfg := testConfig()
	db := newRouterDB(t)
	router := newTestRouter(t, cfg, db)
	owner := uuid.New()
	listing := seedListing(t, db, owner, enums.ListingStatusPending)

	anon := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listing.ID.String(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for anonymous got %d", resp.Code)
	}

	asOwner := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listing.ID.String(), nil)
	asOwner.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, owner, enums.UserRoleMember))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, asOwner)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminReviewRequiresReviewerRole(t *testing.T) {
	cfg := testConfig()
	db := newRouterDB(t)
	router := newTestRouter(t, cfg, db)
	listing := seedListing(t, db, uuid.New(), enums.ListingStatusPending)
	path := "/api/v1/admin/listings/" + listing.ID.String() + "/verify"

	member := httptest.NewRequest(http.MethodPost, path, nil)
	member.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleMember))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, member)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member got %d", resp.Code)
	}

	reviewer := httptest.NewRequest(http.MethodPost, path, nil)
	reviewer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleReviewer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, reviewer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for reviewer got %d: %s", resp.Code, resp.Body.String())
	}

	var updated models.Listing
	if err := db.First(&updated, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("reload listing: %v", err)
	}
	if updated.Status != enums.ListingStatusVerified {
		t.Fatalf("expected verified status got %s", updated.Status)
	}
}

func TestAdminRejectCarriesReason(t *testing.T) {
	cfg := testConfig()
	db := newRouterDB(t)
	router := newTestRouter(t, cfg, db)
	listing := seedListing(t, db, uuid.New(), enums.ListingStatusPending)
	path := "/api/v1/admin/listings/" + listing.ID.String() + "/reject"

	body := strings.NewReader(`{"reason":"photos do not match the address"}`)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.UserRoleReviewer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var events []models.OutboxEvent
	if err := db.Find(&events).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one outbox event got %d", len(events))
	}
	if events[0].EventType != enums.OutboxEventListingRejected {
		t.Fatalf("unexpected event type %s", events[0].EventType)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, newRouterDB(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func decodeEnvelope(t *testing.T, body []byte, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
