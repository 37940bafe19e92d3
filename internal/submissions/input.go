package submissions

import (
	"strings"

	"github.com/google/uuid"

	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/internal/uploads"
	"github.com/roomscout/roomscout-backend/pkg/enums"
	pkgerrors "github.com/roomscout/roomscout-backend/pkg/errors"
)

const (
	minFiles = 1
	maxFiles = 6

	titlePreviewMaxLen = 120
)

// Input is everything a submission needs: who is submitting, which category,
// the category field payload, and the photo batch.
type Input struct {
	Category   enums.Category
	OwnerID    uuid.UUID
	OwnerEmail string
	Detail     details.Input
	Files      []uploads.File
}

// Result carries the ids of a committed submission.
type Result struct {
	ListingID uuid.UUID `json:"listing_id"`
	DetailID  uuid.UUID `json:"detail_id"`
}

func (in Input) validate() error {
	if !in.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category").
			WithDetails(map[string]any{"step": stepValidation})
	}
	if in.OwnerID == uuid.Nil {
		return validationError("owner id required")
	}
	if strings.TrimSpace(in.OwnerEmail) == "" {
		return validationError("owner email required")
	}
	if len(in.Files) < minFiles || len(in.Files) > maxFiles {
		return validationError("between 1 and 6 photos required")
	}
	if strings.TrimSpace(in.Detail.Title) == "" {
		return validationError("title required")
	}
	if strings.TrimSpace(in.Detail.City) == "" {
		return validationError("city required")
	}
	if err := in.validateCategoryPayload(); err != nil {
		return err
	}
	return nil
}

func (in Input) validateCategoryPayload() error {
	var present enums.Category
	count := 0
	if in.Detail.Rental != nil {
		present, count = enums.CategoryRental, count+1
	}
	if in.Detail.Mess != nil {
		present, count = enums.CategoryMess, count+1
	}
	if in.Detail.Hostel != nil {
		present, count = enums.CategoryHostel, count+1
	}
	if in.Detail.Coaching != nil {
		present, count = enums.CategoryCoaching, count+1
	}
	if count != 1 {
		return validationError("exactly one category payload required")
	}
	if present != in.Category {
		return validationError("category payload does not match listing category")
	}
	return nil
}

func validationError(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]any{"step": stepValidation})
}

func titlePreview(title string) string {
	title = strings.TrimSpace(title)
	if len(title) <= titlePreviewMaxLen {
		return title
	}
	return title[:titlePreviewMaxLen]
}
