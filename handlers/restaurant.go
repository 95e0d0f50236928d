package handlers

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"restaurant-api/apperr"
	"restaurant-api/models"
	"restaurant-api/response"
	"restaurant-api/store"
)

type CreateRestaurantRequest struct {
	Name    string            `json:"name" binding:"required,notblank"`
	Cuisine string            `json:"cuisine" binding:"required,notblank"`
	Address string            `json:"address" binding:"required,notblank"`
	City    string            `json:"city" binding:"required,notblank"`
	Rating  float64           `json:"rating" binding:"gte=0,lte=5"`
	Menu    []models.MenuItem `json:"menu"`
	Reviews []models.Review   `json:"reviews"`
}

// UpdateRestaurantRequest merges shallowly: omitted fields stay as they
// are, a supplied menu or reviews list replaces the stored one.
type UpdateRestaurantRequest struct {
	Name    *string            `json:"name"`
	Cuisine *string            `json:"cuisine"`
	Address *string            `json:"address"`
	City    *string            `json:"city"`
	Rating  *float64           `json:"rating"`
	Menu    *[]models.MenuItem `json:"menu"`
	Reviews *[]models.Review   `json:"reviews"`
}

// CreateRestaurant adds a restaurant with an empty menu and no reviews
// unless the body supplies them.
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	created, err := h.restaurants.Create(c.Request.Context(), &models.Restaurant{
		Name:    req.Name,
		Cuisine: req.Cuisine,
		Address: req.Address,
		City:    req.City,
		Rating:  req.Rating,
		Menu:    req.Menu,
		Reviews: req.Reviews,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fmt.Sprintf("Restaurant %q created successfully.", created.Name), "restaurant", created)
}

// GetRestaurant looks a restaurant up by its exact name.
func (h *Handler) GetRestaurant(c *gin.Context) {
	r, err := h.restaurants.GetByName(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Restaurant found.", "restaurant", r)
}

func (h *Handler) ListRestaurants(c *gin.Context) {
	rs, err := h.restaurants.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(rs) == 0 {
		response.Error(c, apperr.NotFound("No restaurants found."))
		return
	}
	response.OK(c, "All restaurants retrieved successfully.", "restaurants", rs)
}

func (h *Handler) SearchByLocation(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		response.Error(c, apperr.Validation("location query parameter is required"))
		return
	}
	rs, err := h.restaurants.ByLocation(c.Request.Context(), location)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(rs) == 0 {
		response.Error(c, apperr.NotFound("No restaurants found in location %q.", location))
		return
	}
	response.OK(c, fmt.Sprintf("Restaurants in location %q found.", location), "restaurants", rs)
}

func (h *Handler) ListByCuisine(c *gin.Context) {
	cuisine := c.Param("cuisineType")
	rs, err := h.restaurants.ByCuisine(c.Request.Context(), cuisine)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(rs) == 0 {
		response.Error(c, apperr.NotFound("No restaurants found with cuisine %q.", cuisine))
		return
	}
	response.OK(c, fmt.Sprintf("Restaurants with cuisine %q found.", cuisine), "restaurants", rs)
}

func (h *Handler) ListByMinRating(c *gin.Context) {
	raw := c.Param("minRating")
	min, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(min) || math.IsInf(min, 0) {
		response.Error(c, apperr.Validation("minRating must be a number"))
		return
	}
	rs, err := h.restaurants.ByMinRating(c.Request.Context(), min)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(rs) == 0 {
		response.Error(c, apperr.NotFound("No restaurants found with rating %s and above.", raw))
		return
	}
	response.OK(c, fmt.Sprintf("Restaurants with rating %s and above found.", raw), "restaurants", rs)
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	updated, err := h.restaurants.Update(c.Request.Context(), c.Param("id"), store.RestaurantPatch{
		Name:    req.Name,
		Cuisine: req.Cuisine,
		Address: req.Address,
		City:    req.City,
		Rating:  req.Rating,
		Menu:    req.Menu,
		Reviews: req.Reviews,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fmt.Sprintf("Restaurant %q updated successfully.", updated.Name), "restaurant", updated)
}

func (h *Handler) DeleteRestaurant(c *gin.Context) {
	removed, err := h.restaurants.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fmt.Sprintf("Restaurant %q deleted successfully.", removed.Name), "restaurant", removed)
}
