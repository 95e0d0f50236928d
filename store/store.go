package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"restaurant-api/apperr"
	"restaurant-api/models"
)

// RestaurantStore persists restaurant aggregates. Every mutating method is
// one atomic write to a single aggregate; nothing spans aggregates.
type RestaurantStore interface {
	Create(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error)
	FindByName(ctx context.Context, name string) (*models.Restaurant, error)
	FindAll(ctx context.Context) ([]models.Restaurant, error)
	FindByID(ctx context.Context, id string) (*models.Restaurant, error)
	UpdateByID(ctx context.Context, id string, patch RestaurantPatch) (*models.Restaurant, error)
	DeleteByID(ctx context.Context, id string) (*models.Restaurant, error)

	// AppendMenuItem and AppendReview add one element without rewriting the
	// collection, so concurrent appenders never lose each other's writes.
	AppendMenuItem(ctx context.Context, id string, item models.MenuItem) (*models.Restaurant, error)
	AppendReview(ctx context.Context, id string, review models.Review) (*models.Restaurant, error)

	// RemoveMenuItems drops every item for which match returns true. The
	// write is conditional on the aggregate version it was computed from.
	RemoveMenuItems(ctx context.Context, id string, match func(models.MenuItem) bool) (*models.Restaurant, error)

	FindByCuisine(ctx context.Context, cuisine string) ([]models.Restaurant, error)
	FindByCity(ctx context.Context, city string) ([]models.Restaurant, error)
	FindByMinRating(ctx context.Context, min float64) ([]models.Restaurant, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// RestaurantPatch is a shallow merge: nil fields are left alone, non-nil
// collections replace the stored ones wholesale.
type RestaurantPatch struct {
	Name    *string
	Cuisine *string
	Address *string
	City    *string
	Rating  *float64
	Menu    *[]models.MenuItem
	Reviews *[]models.Review
}

func (p RestaurantPatch) Empty() bool {
	return p.Name == nil && p.Cuisine == nil && p.Address == nil && p.City == nil &&
		p.Rating == nil && p.Menu == nil && p.Reviews == nil
}

func (p RestaurantPatch) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Cuisine != nil {
		cols["cuisine"] = *p.Cuisine
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.City != nil {
		cols["city"] = *p.City
	}
	if p.Rating != nil {
		cols["rating"] = *p.Rating
	}
	return cols
}

// maxVersionRetries bounds RemoveMenuItems when another writer keeps
// bumping the version underneath it.
const maxVersionRetries = 10

var errVersionRace = errors.New("aggregate version changed")

// backoff waits a little longer after each lost version race.
func backoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt) * 5 * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func derived(rs []models.Restaurant) []models.Restaurant {
	if rs == nil {
		return []models.Restaurant{}
	}
	for i := range rs {
		rs[i].Derive()
	}
	return rs
}

func (p RestaurantPatch) Validate() error {
	fields := []struct {
		name string
		val  *string
	}{{"name", p.Name}, {"cuisine", p.Cuisine}, {"address", p.Address}, {"city", p.City}}
	for _, f := range fields {
		if f.val != nil && strings.TrimSpace(*f.val) == "" {
			return apperr.Validation("%s must not be empty", f.name)
		}
	}
	if p.Rating != nil && !models.RatingInRange(*p.Rating) {
		return apperr.Validation("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	if p.Menu != nil {
		for _, it := range *p.Menu {
			if err := models.ValidateMenuItem(it); err != nil {
				return err
			}
		}
	}
	if p.Reviews != nil {
		for _, rv := range *p.Reviews {
			if err := models.ValidateReview(rv); err != nil {
				return err
			}
		}
	}
	return nil
}
