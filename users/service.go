package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"restaurant-api/apperr"
	"restaurant-api/logger"
	"restaurant-api/models"
	"restaurant-api/store"
)

const minPasswordLen = 6

type SignupInput struct {
	Email             string
	Password          string
	ProfilePictureURL string
	Username          string
	Nickname          string
	PhoneNumber       string
	Address           string
}

type Service struct {
	store store.UserStore
	log   *logger.Logger
	cost  int
}

func NewService(st store.UserStore, baseLog *logger.Logger) *Service {
	return &Service{
		store: st,
		log:   baseLog.With("service", "UserService"),
		cost:  bcrypt.DefaultCost,
	}
}

func (in SignupInput) validate() error {
	switch {
	case strings.TrimSpace(in.Email) == "":
		return apperr.Validation("email is required")
	case len(in.Password) < minPasswordLen:
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	case strings.TrimSpace(in.PhoneNumber) == "":
		return apperr.Validation("phone number is required")
	case strings.TrimSpace(in.Address) == "":
		return apperr.Validation("address is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperr.Validation("email is not valid")
	}
	return nil
}

// Signup registers a new user. Emails are unique.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email is already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Infra(err, "failed to hash password")
	}

	user, err := s.store.Create(ctx, &models.User{
		Email:             email,
		PasswordHash:      string(hash),
		ProfilePictureURL: in.ProfilePictureURL,
		Username:          in.Username,
		Nickname:          in.Nickname,
		PhoneNumber:       in.PhoneNumber,
		Address:           in.Address,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("email is already in use")
		}
		return nil, err
	}
	s.log.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials. Unknown emails and wrong passwords fail
// the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, apperr.Infra(err, "failed to verify password")
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

// ResolveUsers returns the summaries of the users that still exist;
// missing ids are simply absent from the map.
func (s *Service) ResolveUsers(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = found[i].Summary()
	}
	return out, nil
}
