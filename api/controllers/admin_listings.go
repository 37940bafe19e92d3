package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/api/responses"
	"github.com/roomscout/roomscout-backend/api/validators"
	"github.com/roomscout/roomscout-backend/internal/listings"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
	"github.com/roomscout/roomscout-backend/pkg/logger"
)

// AdminVerifyListing flips a pending listing to verified.
func AdminVerifyListing(svc *listings.ReviewService, logg *logger.Logger) http.HandlerFunc {
	return reviewHandler(svc, logg, func(svc *listings.ReviewService, r *http.Request, input listings.ReviewInput) error {
		return svc.Verify(r.Context(), input)
	})
}

// AdminRejectListing declines a pending listing with an optional reason.
func AdminRejectListing(svc *listings.ReviewService, logg *logger.Logger) http.HandlerFunc {
	return reviewHandler(svc, logg, func(svc *listings.ReviewService, r *http.Request, input listings.ReviewInput) error {
		return svc.Reject(r.Context(), input)
	})
}

type reviewRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func reviewHandler(svc *listings.ReviewService, logg *logger.Logger, apply func(*listings.ReviewService, *http.Request, listings.ReviewInput) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		reviewerID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		var payload reviewRequest
		if r.Body != nil && r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := listings.ReviewInput{
			ListingID:  listingID,
			ReviewerID: reviewerID,
			Reason:     validators.SanitizeString(payload.Reason, 500),
		}

		if err := apply(svc, r, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"listing_id": listingID.String(), "status": "ok"})
	}
}
