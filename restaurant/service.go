package restaurant

import (
	"context"
	"time"

	"restaurant-api/apperr"
	"restaurant-api/logger"
	"restaurant-api/models"
	"restaurant-api/store"
)

// UserDirectory resolves review authors. Ids that no longer exist are
// absent from the returned map.
type UserDirectory interface {
	ResolveUsers(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
}

type Service struct {
	store store.RestaurantStore
	users UserDirectory
	log   *logger.Logger
}

func NewService(st store.RestaurantStore, users UserDirectory, baseLog *logger.Logger) *Service {
	return &Service{
		store: st,
		users: users,
		log:   baseLog.With("service", "RestaurantService"),
	}
}

func (s *Service) Create(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error) {
	created, err := s.store.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	s.log.Info("restaurant created", "restaurant_id", created.ID)
	return created, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*models.Restaurant, error) {
	return s.store.FindByName(ctx, name)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Restaurant, error) {
	return s.store.FindAll(ctx)
}

func (s *Service) Update(ctx context.Context, id string, patch store.RestaurantPatch) (*models.Restaurant, error) {
	if patch.Empty() {
		return s.store.FindByID(ctx, id)
	}
	return s.store.UpdateByID(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Restaurant, error) {
	removed, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("restaurant deleted", "restaurant_id", id)
	return removed, nil
}

// AddDish appends without checking for an existing dish of the same name.
func (s *Service) AddDish(ctx context.Context, restaurantID string, dish models.MenuItem) (*models.Restaurant, error) {
	if err := models.ValidateMenuItem(dish); err != nil {
		return nil, err
	}
	return s.store.AppendMenuItem(ctx, restaurantID, dish)
}

// RemoveDish drops every dish whose name matches ignoring case. Nothing
// matching is not an error.
func (s *Service) RemoveDish(ctx context.Context, restaurantID, dishName string) (*models.Restaurant, error) {
	return s.store.RemoveMenuItems(ctx, restaurantID, func(it models.MenuItem) bool {
		return models.DishNameMatches(it.Name, dishName)
	})
}

func (s *Service) AddReview(ctx context.Context, restaurantID, userID, text string, rating float64) (*models.Restaurant, error) {
	if _, err := s.store.FindByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	review := models.Review{UserID: userID, Text: text, Rating: rating, CreatedAt: time.Now().UTC()}
	if err := models.ValidateReview(review); err != nil {
		return nil, err
	}

	authors, err := s.users.ResolveUsers(ctx, []string{userID})
	if err != nil {
		return nil, apperr.Infra(err, "failed to look up user")
	}
	if _, ok := authors[userID]; !ok {
		return nil, apperr.NotFound("user not found")
	}

	updated, err := s.store.AppendReview(ctx, restaurantID, review)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, updated); err != nil {
		return nil, err
	}
	s.log.Debug("review added", "restaurant_id", restaurantID, "user_id", userID)
	return updated, nil
}

// attachAuthors fills Review.User without the author's email.
func (s *Service) attachAuthors(ctx context.Context, r *models.Restaurant) error {
	authors, err := s.users.ResolveUsers(ctx, r.ReviewerIDs())
	if err != nil {
		return apperr.Infra(err, "failed to resolve review authors")
	}
	for i := range r.Reviews {
		if u, ok := authors[r.Reviews[i].UserID]; ok {
			u.Email = ""
			r.Reviews[i].User = &u
		}
	}
	return nil
}

// ListReviews keeps insertion order. Authors that cannot be resolved come
// back as a nil User rather than an error.
func (s *Service) ListReviews(ctx context.Context, restaurantID string) ([]models.ReviewView, error) {
	r, err := s.store.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	authors, err := s.users.ResolveUsers(ctx, r.ReviewerIDs())
	if err != nil {
		return nil, apperr.Infra(err, "failed to resolve review authors")
	}
	views := make([]models.ReviewView, 0, len(r.Reviews))
	for _, rv := range r.Reviews {
		view := models.ReviewView{ReviewText: rv.Text, Rating: rv.Rating}
		if u, ok := authors[rv.UserID]; ok {
			view.User = &u
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) ByCuisine(ctx context.Context, cuisine string) ([]models.Restaurant, error) {
	return s.store.FindByCuisine(ctx, cuisine)
}

func (s *Service) ByLocation(ctx context.Context, city string) ([]models.Restaurant, error) {
	return s.store.FindByCity(ctx, city)
}

// ByMinRating filters on the stored rating, not the review average. Any
// threshold is accepted; one above the range simply matches nothing.
func (s *Service) ByMinRating(ctx context.Context, min float64) ([]models.Restaurant, error) {
	return s.store.FindByMinRating(ctx, min)
}
