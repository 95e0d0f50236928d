package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restaurant-api/apperr"
	"restaurant-api/logger"
	"restaurant-api/models"
)

type gormRestaurantStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGormRestaurantStore keeps menu items and reviews as child rows ordered
// by their auto-increment seq. Each aggregate write bumps the restaurant's
// version inside the same transaction.
func NewGormRestaurantStore(db *gorm.DB, baseLog *logger.Logger) RestaurantStore {
	return &gormRestaurantStore{db: db, log: baseLog.With("store", "RestaurantStore", "backend", "gorm")}
}

func withAggregate(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Menu", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("seq") })
}

func loadAggregate(tx *gorm.DB, id string) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := withAggregate(tx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return r.Derive(), nil
}

// bumpVersion applies cols and increments the version; a missing row is
// reported as gorm.ErrRecordNotFound.
func bumpVersion(tx *gorm.DB, id string, cols map[string]interface{}) error {
	cols["version"] = gorm.Expr("version + ?", 1)
	cols["updated_at"] = time.Now()
	res := tx.Model(&models.Restaurant{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormRestaurantStore) Create(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Version = 1
	for i := range r.Menu {
		r.Menu[i].Seq = 0
	}
	for i := range r.Reviews {
		r.Reviews[i].Seq = 0
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, translateGorm(err, "restaurant", "create")
	}
	s.log.Debug("restaurant created", "restaurant_id", r.ID)
	return r.Derive(), nil
}

func (s *gormRestaurantStore) FindByName(ctx context.Context, name string) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := withAggregate(s.db.WithContext(ctx)).Where("name = ?", name).First(&r).Error; err != nil {
		return nil, translateGorm(err, "restaurant", "retrieve")
	}
	return r.Derive(), nil
}

func (s *gormRestaurantStore) FindAll(ctx context.Context) ([]models.Restaurant, error) {
	return s.find(ctx, "retrieve")
}

func (s *gormRestaurantStore) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	r, err := loadAggregate(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, translateGorm(err, "restaurant", "retrieve")
	}
	return r, nil
}

func (s *gormRestaurantStore) UpdateByID(ctx context.Context, id string, patch RestaurantPatch) (*models.Restaurant, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var out *models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, id, patch.columns()); err != nil {
			return err
		}
		if patch.Menu != nil {
			if err := replaceMenu(tx, id, *patch.Menu); err != nil {
				return err
			}
		}
		if patch.Reviews != nil {
			if err := replaceReviews(tx, id, *patch.Reviews); err != nil {
				return err
			}
		}
		var err error
		out, err = loadAggregate(tx, id)
		return err
	})
	if err != nil {
		return nil, translateGorm(err, "restaurant", "update")
	}
	return out, nil
}

func replaceMenu(tx *gorm.DB, id string, items []models.MenuItem) error {
	if err := tx.Where("restaurant_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.MenuItem, len(items))
	for i, it := range items {
		it.Seq = 0
		it.RestaurantID = id
		rows[i] = it
	}
	return tx.Create(&rows).Error
}

func replaceReviews(tx *gorm.DB, id string, reviews []models.Review) error {
	if err := tx.Where("restaurant_id = ?", id).Delete(&models.Review{}).Error; err != nil {
		return err
	}
	if len(reviews) == 0 {
		return nil
	}
	rows := make([]models.Review, len(reviews))
	for i, rv := range reviews {
		rv.Seq = 0
		rv.RestaurantID = id
		rv.User = nil
		rows[i] = rv
	}
	return tx.Create(&rows).Error
}

func (s *gormRestaurantStore) DeleteByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var out *models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if out, err = loadAggregate(tx, id); err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Restaurant{}).Error
	})
	if err != nil {
		return nil, translateGorm(err, "restaurant", "delete")
	}
	s.log.Debug("restaurant deleted", "restaurant_id", id)
	return out, nil
}

func (s *gormRestaurantStore) AppendMenuItem(ctx context.Context, id string, item models.MenuItem) (*models.Restaurant, error) {
	item.Seq = 0
	item.RestaurantID = id
	var out *models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, id, map[string]interface{}{}); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		var err error
		out, err = loadAggregate(tx, id)
		return err
	})
	if err != nil {
		return nil, translateGorm(err, "restaurant", "add a dish to")
	}
	return out, nil
}

func (s *gormRestaurantStore) AppendReview(ctx context.Context, id string, review models.Review) (*models.Restaurant, error) {
	review.Seq = 0
	review.RestaurantID = id
	review.User = nil
	var out *models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, id, map[string]interface{}{}); err != nil {
			return err
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		var err error
		out, err = loadAggregate(tx, id)
		return err
	})
	if err != nil {
		return nil, translateGorm(err, "restaurant", "add a review to")
	}
	return out, nil
}

// RemoveMenuItems reads the aggregate, evaluates match outside any
// transaction and then writes only if the version is still the one it read.
func (s *gormRestaurantStore) RemoveMenuItems(ctx context.Context, id string, match func(models.MenuItem) bool) (*models.Restaurant, error) {
	for attempt := 1; attempt <= maxVersionRetries; attempt++ {
		current, err := loadAggregate(s.db.WithContext(ctx), id)
		if err != nil {
			return nil, translateGorm(err, "restaurant", "remove a dish from")
		}
		var seqs []uint
		for _, it := range current.Menu {
			if match(it) {
				seqs = append(seqs, it.Seq)
			}
		}

		var out *models.Restaurant
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Restaurant{}).
				Where("id = ? AND version = ?", id, current.Version).
				Updates(map[string]interface{}{
					"version":    gorm.Expr("version + ?", 1),
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errVersionRace
			}
			if len(seqs) > 0 {
				if err := tx.Where("restaurant_id = ? AND seq IN ?", id, seqs).Delete(&models.MenuItem{}).Error; err != nil {
					return err
				}
			}
			var err error
			out, err = loadAggregate(tx, id)
			return err
		})
		if errors.Is(err, errVersionRace) {
			s.log.Debug("menu removal lost a version race, retrying", "restaurant_id", id, "attempt", attempt)
			if err := backoff(ctx, attempt); err != nil {
				return nil, translateGorm(err, "restaurant", "remove a dish from")
			}
			continue
		}
		if err != nil {
			return nil, translateGorm(err, "restaurant", "remove a dish from")
		}
		return out, nil
	}
	return nil, translateGorm(errVersionRace, "restaurant", "remove a dish from")
}

func (s *gormRestaurantStore) FindByCuisine(ctx context.Context, cuisine string) ([]models.Restaurant, error) {
	return s.find(ctx, "filter", "cuisine = ?", cuisine)
}

func (s *gormRestaurantStore) FindByCity(ctx context.Context, city string) ([]models.Restaurant, error) {
	return s.find(ctx, "search", "city = ?", city)
}

func (s *gormRestaurantStore) FindByMinRating(ctx context.Context, min float64) ([]models.Restaurant, error) {
	return s.find(ctx, "filter", "rating >= ?", min)
}

func (s *gormRestaurantStore) find(ctx context.Context, action string, where ...interface{}) ([]models.Restaurant, error) {
	q := withAggregate(s.db.WithContext(ctx))
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	var rs []models.Restaurant
	if err := q.Order("created_at").Find(&rs).Error; err != nil {
		return nil, translateGorm(err, "restaurants", action)
	}
	return derived(rs), nil
}

func translateGorm(err error, entity, action string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("%s already exists", entity)
	case errors.Is(err, errVersionRace):
		return apperr.New(apperr.KindConflict, entity+" was modified concurrently, please retry", err)
	default:
		return apperr.Infra(err, fmt.Sprintf("failed to %s %s", action, entity))
	}
}
