package models

import (
	"strings"

	"restaurant-api/apperr"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Validate checks the fields a restaurant must carry from creation on.
func (r *Restaurant) Validate() error {
	switch {
	case blank(r.Name):
		return apperr.Validation("name is required")
	case blank(r.Cuisine):
		return apperr.Validation("cuisine is required")
	case blank(r.Address):
		return apperr.Validation("address is required")
	case blank(r.City):
		return apperr.Validation("city is required")
	case !RatingInRange(r.Rating):
		return apperr.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}
	for _, it := range r.Menu {
		if err := ValidateMenuItem(it); err != nil {
			return err
		}
	}
	for _, rv := range r.Reviews {
		if err := ValidateReview(rv); err != nil {
			return err
		}
	}
	return nil
}

func ValidateMenuItem(it MenuItem) error {
	if blank(it.Name) {
		return apperr.Validation("dish name is required")
	}
	if it.Price < 0 {
		return apperr.Validation("dish price must not be negative")
	}
	return nil
}

func ValidateReview(rv Review) error {
	switch {
	case blank(rv.UserID):
		return apperr.Validation("userId is required")
	case blank(rv.Text):
		return apperr.Validation("review text is required")
	case !RatingInRange(rv.Rating):
		return apperr.Validation("review rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}
