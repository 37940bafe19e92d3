package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomscout/roomscout-backend/api/controllers"
	"github.com/roomscout/roomscout-backend/api/middleware"
	"github.com/roomscout/roomscout-backend/internal/listings"
	"github.com/roomscout/roomscout-backend/internal/notifications"
	"github.com/roomscout/roomscout-backend/internal/submissions"
	"github.com/roomscout/roomscout-backend/pkg/config"
	"github.com/roomscout/roomscout-backend/pkg/db"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/redis"
	"github.com/roomscout/roomscout-backend/pkg/storage/gcs"
)

// Deps bundles everything the HTTP surface needs. cmd/api builds one of these
// after wiring the services.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *redis.Client
	GCS     gcs.Pinger
	Metrics *prometheus.Registry

	Submissions   *submissions.Coordinator
	Listings      *listings.Service
	Review        *listings.ReviewService
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.GCS))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public browse surface. Detail parses a bearer token when present so
		// owners and reviewers can see their pending listings.
		r.Get("/listings", controllers.BrowseListings(deps.Listings, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).
			Get("/listings/{listingId}", controllers.ListingDetail(deps.Listings, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			if deps.Redis != nil {
				r.Use(middleware.Idempotency(deps.Redis, logg))
			}

			r.Post("/listings", controllers.SubmitListing(deps.Submissions, logg))
			r.Get("/me/listings", controllers.MyListings(deps.Listings, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})

			r.Route("/admin/listings", func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.UserRoleReviewer), string(enums.UserRoleAdmin)))
				r.Post("/{listingId}/verify", controllers.AdminVerifyListing(deps.Review, logg))
				r.Post("/{listingId}/reject", controllers.AdminRejectListing(deps.Review, logg))
			})
		})
	})

	return r
}
