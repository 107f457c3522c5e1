// Package middleware holds the gin middleware guarding the API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
)

// IdentityKey is the gin context key holding the authenticated API key.
const IdentityKey = "api_key"

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
