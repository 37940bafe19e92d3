package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomscout/roomscout-backend/api/middleware"
	"github.com/roomscout/roomscout-backend/api/responses"
	"github.com/roomscout/roomscout-backend/api/validators"
	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/internal/listings"
	"github.com/roomscout/roomscout-backend/internal/submissions"
	"github.com/roomscout/roomscout-backend/internal/uploads"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
	"github.com/roomscout/roomscout-backend/pkg/logger"
)

const (
	submitMultipartMemory = 32 << 20

	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxAddressLen     = 500
	maxCityLen        = 100
)

// SubmitListing accepts a multipart submission: a "payload" JSON part with the
// listing fields and up to six "photos" file parts.
func SubmitListing(coord *submissions.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coord == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission service unavailable"))
			return
		}

		ownerID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ownerEmail := middleware.EmailFromContext(r.Context())

		if err := r.ParseMultipartForm(submitMultipartMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		var payload submitListingRequest
		raw := r.FormValue("payload")
		if strings.TrimSpace(raw) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payload part required"))
			return
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payload json"))
			return
		}
		if err := validators.ValidateStruct(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(ownerID, ownerEmail)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Files = multipartFiles(r, "photos")

		result, err := coord.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// BrowseListings serves the public cursor-paginated browse page.
func BrowseListings(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		input, err := browseInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Browse(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MyListings scopes the browse query to the authenticated owner, any status.
func MyListings(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		ownerID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := browseInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OwnerID = &ownerID

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseListingStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Filters.Status = &status
		} else {
			input.Filters.Status = nil
		}

		result, err := svc.Browse(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListingDetail joins the index row with its category record. Pending and
// rejected listings are visible to their owner and to reviewers only.
func ListingDetail(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		viewer := listings.Viewer{}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if uid, parseErr := uuid.Parse(raw); parseErr == nil {
				viewer.UserID = uid
				viewer.Role = enums.UserRole(middleware.RoleFromContext(r.Context()))
			}
		}

		detail, err := svc.GetDetail(r.Context(), listingID, viewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type submitListingRequest struct {
	Category    string `json:"category" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Address     string `json:"address,omitempty" validate:"omitempty,max=500"`
	City        string `json:"city" validate:"required,max=100"`

	Rental   *rentalPayload   `json:"rental,omitempty"`
	Mess     *messPayload     `json:"mess,omitempty"`
	Hostel   *hostelPayload   `json:"hostel,omitempty"`
	Coaching *coachingPayload `json:"coaching,omitempty"`
}

type rentalPayload struct {
	RoomType      string          `json:"room_type" validate:"required"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent" validate:"required"`
	Deposit       decimal.Decimal `json:"deposit,omitempty"`
	Furnished     bool            `json:"furnished,omitempty"`
	AvailableFrom *time.Time      `json:"available_from,omitempty"`
}

type messPayload struct {
	MealType       string          `json:"meal_type" validate:"required"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price" validate:"required"`
	TrialAvailable bool            `json:"trial_available,omitempty"`
	Timings        string          `json:"timings,omitempty"`
}

type hostelPayload struct {
	Gender      string          `json:"gender" validate:"required"`
	BedsPerRoom int             `json:"beds_per_room" validate:"required,min=1"`
	MonthlyFee  decimal.Decimal `json:"monthly_fee" validate:"required"`
	Amenities   string          `json:"amenities,omitempty"`
}

type coachingPayload struct {
	Subjects   string          `json:"subjects" validate:"required"`
	MonthlyFee decimal.Decimal `json:"monthly_fee" validate:"required"`
	BatchSize  int             `json:"batch_size,omitempty" validate:"omitempty,min=1"`
	Mode       string          `json:"mode,omitempty"`
}

func (req submitListingRequest) toInput(ownerID uuid.UUID, ownerEmail string) (submissions.Input, error) {
	category, err := enums.ParseCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return submissions.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	detail := details.Input{
		OwnerID:     ownerID,
		Title:       validators.SanitizeString(req.Title, maxTitleLen),
		Description: validators.SanitizeString(req.Description, maxDescriptionLen),
		Address:     validators.SanitizeString(req.Address, maxAddressLen),
		City:        validators.SanitizeString(req.City, maxCityLen),
	}

	if req.Rental != nil {
		detail.Rental = &details.RentalInput{
			RoomType:      validators.SanitizeString(req.Rental.RoomType, 50),
			MonthlyRent:   req.Rental.MonthlyRent,
			Deposit:       req.Rental.Deposit,
			Furnished:     req.Rental.Furnished,
			AvailableFrom: req.Rental.AvailableFrom,
		}
	}
	if req.Mess != nil {
		detail.Mess = &details.MessInput{
			MealType:       validators.SanitizeString(req.Mess.MealType, 50),
			MonthlyPrice:   req.Mess.MonthlyPrice,
			TrialAvailable: req.Mess.TrialAvailable,
			Timings:        validators.SanitizeString(req.Mess.Timings, 200),
		}
	}
	if req.Hostel != nil {
		detail.Hostel = &details.HostelInput{
			Gender:      validators.SanitizeString(req.Hostel.Gender, 20),
			BedsPerRoom: req.Hostel.BedsPerRoom,
			MonthlyFee:  req.Hostel.MonthlyFee,
			Amenities:   validators.SanitizeString(req.Hostel.Amenities, 500),
		}
	}
	if req.Coaching != nil {
		detail.Coaching = &details.CoachingInput{
			Subjects:   validators.SanitizeString(req.Coaching.Subjects, 200),
			MonthlyFee: req.Coaching.MonthlyFee,
			BatchSize:  req.Coaching.BatchSize,
			Mode:       validators.SanitizeString(req.Coaching.Mode, 20),
		}
	}

	return submissions.Input{
		Category:   category,
		OwnerID:    ownerID,
		OwnerEmail: strings.TrimSpace(ownerEmail),
		Detail:     detail,
	}, nil
}

func browseInput(r *http.Request) (listings.ListInput, error) {
	input := listings.ListInput{}

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := enums.ParseCategory(raw)
		if err != nil {
			return listings.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Filters.Category = &category
	}

	input.Filters.City = validators.SanitizeString(r.URL.Query().Get("city"), maxCityLen)
	input.Filters.Query = validators.SanitizeString(r.URL.Query().Get("q"), maxTitleLen)

	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return listings.ListInput{}, err
	}
	input.Pagination.Limit = limit
	input.Pagination.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

	return input, nil
}

func multipartFiles(r *http.Request, field string) []uploads.File {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]uploads.File, 0, len(headers))
	for _, header := range headers {
		files = append(files, uploads.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			SizeBytes:   header.Size,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		})
	}
	return files
}

func actorUUID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
