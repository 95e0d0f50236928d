package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-api/apperr"
)

// Error writes the {error} envelope with the status picked from the
// error's kind. Wrapped causes never reach the caller.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.PublicMessage(err)})
}

// BadRequest is used for bodies that fail to bind.
func BadRequest(c *gin.Context, err error) {
	msg := "invalid request body"
	if err != nil {
		msg = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func OK(c *gin.Context, message, key string, value any) {
	c.JSON(http.StatusOK, gin.H{"message": message, key: value})
}

func Created(c *gin.Context, message, key string, value any) {
	c.JSON(http.StatusCreated, gin.H{"message": message, key: value})
}
