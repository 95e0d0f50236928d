package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"restaurant-api/models"
	"restaurant-api/response"
)

type AddDishRequest struct {
	Name        string  `json:"name" binding:"required,notblank"`
	Price       float64 `json:"price" binding:"gte=0"`
	Description string  `json:"description"`
	IsVeg       bool    `json:"isVeg"`
}

// AddDish appends a dish; duplicates by name are allowed.
func (h *Handler) AddDish(c *gin.Context) {
	var req AddDishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	updated, err := h.restaurants.AddDish(c.Request.Context(), c.Param("id"), models.MenuItem{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		IsVeg:       req.IsVeg,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Dish added to the menu successfully.", "restaurant", updated)
}

func (h *Handler) RemoveDish(c *gin.Context) {
	dishName := c.Param("dishName")
	updated, err := h.restaurants.RemoveDish(c.Request.Context(), c.Param("id"), dishName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fmt.Sprintf("Dish %q removed from the menu successfully.", dishName), "restaurant", updated)
}
