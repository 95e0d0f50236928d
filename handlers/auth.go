package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-api/apperr"
	"restaurant-api/middleware"
	"restaurant-api/response"
	"restaurant-api/users"
)

type SignupRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=6"`
	ProfilePictureURL string `json:"profilePictureURL"`
	Username          string `json:"username"`
	Nickname          string `json:"nickname"`
	PhoneNumber       string `json:"phoneNumber" binding:"required,notblank"`
	Address           string `json:"address" binding:"required,notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup creates a new user account
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	user, err := h.users.Signup(c.Request.Context(), users.SignupInput{
		Email:             req.Email,
		Password:          req.Password,
		ProfilePictureURL: req.ProfilePictureURL,
		Username:          req.Username,
		Nickname:          req.Nickname,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Signup successful.", "user", user)
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			h.log.Warn("login failed", "email", req.Email, "client_ip", c.ClientIP())
		}
		response.Error(c, err)
		return
	}

	token, err := middleware.GenerateToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		response.Error(c, apperr.Infra(err, "failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful.",
		"user":    user,
		"token":   token,
	})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
