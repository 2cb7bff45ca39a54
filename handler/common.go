package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clauseguard/contractreview/backend/middleware"
	"github.com/clauseguard/contractreview/backend/model"
	"github.com/clauseguard/contractreview/backend/service"
)

// resolveOrganization maps the JWT organization claim to its record. Writes
// the error response itself so handlers can bail with a plain return.
func resolveOrganization(c *gin.Context, store *service.Store) (*model.Organization, bool) {
	name := middleware.GetOrganization(c)
	org, err := store.GetOrganizationByName(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown organization"})
		return nil, false
	}
	return org, true
}
