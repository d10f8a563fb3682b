package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/slotwise/caseload-api/internal/middleware"
	"github.com/slotwise/caseload-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.ProviderClaims {
	value, exists := c.Get(middleware.ContextProviderKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.ProviderClaims)
	if !ok {
		return nil
	}
	return claims
}

// providerFromContext returns the authenticated provider id, or "" when
// the route is unauthenticated.
func providerFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.ProviderID
}
