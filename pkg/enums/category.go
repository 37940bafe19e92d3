package enums

import "fmt"

// Category identifies the listing category and selects its detail store.
type Category string

const (
	CategoryRental   Category = "rental"
	CategoryMess     Category = "mess"
	CategoryHostel   Category = "hostel"
	CategoryCoaching Category = "coaching"
)

var validCategories = []Category{
	CategoryRental,
	CategoryMess,
	CategoryHostel,
	CategoryCoaching,
}

// Categories returns the canonical category set in declaration order.
func Categories() []Category {
	out := make([]Category, len(validCategories))
	copy(out, validCategories)
	return out
}

// IsValid reports whether the value matches the canonical category enum.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts the raw string to Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}
