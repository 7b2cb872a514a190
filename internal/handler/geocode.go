package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"school-scraper/internal/geocoder"
	"school-scraper/internal/models"

	"github.com/gin-gonic/gin"
)

// GeoCodeHandler handles geocoding requests
type GeoCodeHandler struct {
	service GeoCodeService
}

// GeoCodeService interface for dependency injection
type GeoCodeService interface {
	Geocode(context.Context, string) (models.Coordinates, error)
}

// NewGeoCodeHandler creates a new geocode handler
func NewGeoCodeHandler(svc GeoCodeService) *GeoCodeHandler {
	return &GeoCodeHandler{service: svc}
}

// GeoCode handles GET /geocode requests
//
//	@Summary	Resolve an address to coordinates
//	@Tags		geocode
//	@Produce	json
//	@Param		q	query		string	true	"Free-form address"
//	@Success	200	{object}	models.Coordinates
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/geocode [get]
func (h *GeoCodeHandler) GeoCode(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'q'"})
		return
	}

	coords, err := h.service.Geocode(c.Request.Context(), query)
	if errors.Is(err, geocoder.ErrNoResult) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location found for the address"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, coords)
}
