package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restaurant-api/logger"
	"restaurant-api/models"
)

type gormUserStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormUserStore(db *gorm.DB, baseLog *logger.Logger) UserStore {
	return &gormUserStore{db: db, log: baseLog.With("store", "UserStore", "backend", "gorm")}
}

func (s *gormUserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, translateGorm(err, "user", "create")
	}
	s.log.Debug("user created", "user_id", u.ID)
	return u, nil
}

func (s *gormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translateGorm(err, "user", "retrieve")
	}
	return &u, nil
}

func (s *gormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translateGorm(err, "user", "retrieve")
	}
	return &u, nil
}

func (s *gormUserStore) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	results := []models.User{}
	if len(ids) == 0 {
		return results, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, translateGorm(err, "users", "retrieve")
	}
	return results, nil
}

func (s *gormUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, translateGorm(err, "user", "check")
	}
	return count > 0, nil
}
