package handlers

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"restaurant-api/logger"
	"restaurant-api/restaurant"
	"restaurant-api/users"
)

type Handler struct {
	restaurants *restaurant.Service
	users       *users.Service
	jwtSecret   []byte
	jwtTTL      time.Duration
	log         *logger.Logger
}

func New(restaurants *restaurant.Service, users *users.Service, jwtSecret []byte, jwtTTL time.Duration, baseLog *logger.Logger) *Handler {
	registerValidators()
	return &Handler{
		restaurants: restaurants,
		users:       users,
		jwtSecret:   jwtSecret,
		jwtTTL:      jwtTTL,
		log:         baseLog.With("component", "http"),
	}
}

var validatorsOnce sync.Once

// registerValidators adds the notblank rule to gin's binding engine.
func registerValidators() {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", validators.NotBlank)
		}
	})
}
