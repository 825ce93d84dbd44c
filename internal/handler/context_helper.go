package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/middleware"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorUID returns the authenticated user's ID, or "" for anonymous
// callers on optionally-authenticated routes.
func actorUID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}
