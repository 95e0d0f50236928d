package handlers

import (
	"github.com/gin-gonic/gin"

	"restaurant-api/response"
)

type AddReviewRequest struct {
	UserID     string   `json:"userId" binding:"required,notblank"`
	ReviewText string   `json:"reviewText" binding:"required,notblank"`
	Rating     *float64 `json:"rating" binding:"required"`
}

func (h *Handler) AddReview(c *gin.Context) {
	var req AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	updated, err := h.restaurants.AddReview(c.Request.Context(), c.Param("id"), req.UserID, req.ReviewText, *req.Rating)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Review added successfully.", "restaurant", updated)
}

func (h *Handler) ListReviews(c *gin.Context) {
	reviews, err := h.restaurants.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User reviews retrieved successfully.", "reviews", reviews)
}
