package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Restaurant is the aggregate root. Menu and Reviews are owned by it and
// always read and written together with it.
type Restaurant struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string     `json:"name" gorm:"not null;index"`
	Cuisine       string     `json:"cuisine" gorm:"not null;index"`
	Address       string     `json:"address" gorm:"not null"`
	City          string     `json:"city" gorm:"not null;index"`
	Rating        float64    `json:"rating" gorm:"not null;default:0;index"`
	AverageRating float64    `json:"averageRating" gorm:"-"`
	Menu          []MenuItem `json:"menu" gorm:"foreignKey:RestaurantID"`
	Reviews       []Review   `json:"reviews" gorm:"foreignKey:RestaurantID"`
	Version       int64      `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// MenuItem has no identity of its own; Seq only keeps insertion order.
type MenuItem struct {
	Seq          uint    `json:"-" gorm:"primaryKey;autoIncrement"`
	RestaurantID string  `json:"-" gorm:"type:varchar(36);not null;index"`
	Name         string  `json:"name" gorm:"not null"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	IsVeg        bool    `json:"isVeg"`
}

// Review points at a user by id only. User is filled in on read when the
// author can be resolved.
type Review struct {
	Seq          uint         `json:"-" gorm:"primaryKey;autoIncrement"`
	RestaurantID string       `json:"-" gorm:"type:varchar(36);not null;index"`
	UserID       string       `json:"userId" gorm:"type:varchar(36);not null;index"`
	Text         string       `json:"text" gorm:"not null"`
	Rating       float64      `json:"rating" gorm:"not null"`
	CreatedAt    time.Time    `json:"createdAt"`
	User         *UserSummary `json:"user,omitempty" gorm:"-"`
}

// UnmarshalJSON also takes the author from "user", given either as an id
// string or as an object with an id. "userId" wins when both are set.
func (r *Review) UnmarshalJSON(data []byte) error {
	type plain Review
	aux := struct {
		*plain
		User json.RawMessage `json:"user"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.UserID != "" || len(aux.User) == 0 || string(aux.User) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(aux.User, &id); err == nil {
		r.UserID = id
		return nil
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(aux.User, &ref); err != nil {
		return err
	}
	r.UserID = ref.ID
	return nil
}

// ReviewView is the projection returned when listing a restaurant's reviews.
// User stays null when the author no longer exists.
type ReviewView struct {
	ReviewText string       `json:"reviewText"`
	Rating     float64      `json:"rating"`
	User       *UserSummary `json:"user"`
}

const (
	MinRating = 0
	MaxRating = 5
)

func RatingInRange(r float64) bool {
	return !math.IsNaN(r) && r >= MinRating && r <= MaxRating
}

// AverageRating is the mean review rating rounded to two decimals, 0 for
// no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(sum/float64(len(reviews))*100) / 100
}

// DishNameMatches compares lower-cased names without trimming.
func DishNameMatches(itemName, dishName string) bool {
	return strings.ToLower(itemName) == strings.ToLower(dishName)
}

// Derive fills the fields that are never stored and replaces nil
// collections with empty ones.
func (r *Restaurant) Derive() *Restaurant {
	if r == nil {
		return nil
	}
	if r.Menu == nil {
		r.Menu = []MenuItem{}
	}
	if r.Reviews == nil {
		r.Reviews = []Review{}
	}
	r.AverageRating = AverageRating(r.Reviews)
	return r
}

// ReviewerIDs returns the distinct author ids in review order.
func (r *Restaurant) ReviewerIDs() []string {
	seen := make(map[string]bool, len(r.Reviews))
	ids := make([]string, 0, len(r.Reviews))
	for _, rv := range r.Reviews {
		if rv.UserID == "" || seen[rv.UserID] {
			continue
		}
		seen[rv.UserID] = true
		ids = append(ids, rv.UserID)
	}
	return ids
}
