package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Restaurant API",
		"version": "1.0.0",
	})
}

func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Restaurant API",
		"health":  "/health",
		"routes":  []string{"/restaurants", "/user/signup", "/user/login", "/user/profile"},
	})
}
