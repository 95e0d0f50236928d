package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-api/apperr"
	"restaurant-api/handlers"
	"restaurant-api/middleware"
	"restaurant-api/response"
)

// SetupRoutes registers every endpoint. All per-restaurant routes share
// the :id wildcard; on plain GET it carries the restaurant name.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, jwtSecret []byte) {
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperr.NotFound("Route not found"))
	})

	r.GET("/health", handlers.Health)
	r.GET("/", handlers.Welcome)

	// ── Restaurants ───────────────────────────────────────────────
	restaurants := r.Group("/restaurants")
	{
		restaurants.POST("", h.CreateRestaurant)
		restaurants.GET("", h.ListRestaurants)
		restaurants.GET("/search", h.SearchByLocation)
		restaurants.GET("/cuisine/:cuisineType", h.ListByCuisine)
		restaurants.GET("/rating/:minRating", h.ListByMinRating)

		restaurants.GET("/:id", h.GetRestaurant)
		restaurants.POST("/:id", h.UpdateRestaurant)
		restaurants.DELETE("/:id", h.DeleteRestaurant)

		restaurants.POST("/:id/menu", h.AddDish)
		restaurants.DELETE("/:id/menu/:dishName", h.RemoveDish)

		restaurants.POST("/:id/reviews", h.AddReview)
		restaurants.GET("/:id/reviews", h.ListReviews)
	}

	// ── Users ─────────────────────────────────────────────────────
	user := r.Group("/user")
	{
		user.POST("/signup", h.Signup)
		user.POST("/login", h.Login)
		user.GET("/profile", middleware.AuthRequired(jwtSecret), h.GetProfile)
	}
}
