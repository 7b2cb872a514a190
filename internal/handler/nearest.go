package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"school-scraper/internal/models"
	"school-scraper/internal/service"

	"github.com/gin-gonic/gin"
)

// NearestSchoolHandler handles nearest-school lookups
type NearestSchoolHandler struct {
	service NearestSchoolService
}

// NearestSchoolService interface for dependency injection
type NearestSchoolService interface {
	Nearest(context.Context, float64, float64) (*models.NearestSchool, error)
}

// NewNearestSchoolHandler creates a new nearest-school handler
func NewNearestSchoolHandler(svc NearestSchoolService) *NearestSchoolHandler {
	return &NearestSchoolHandler{service: svc}
}

// Nearest handles GET /api/schools/nearest requests
//
//	@Summary	Find the school closest to a point
//	@Tags		schools
//	@Produce	json
//	@Param		lat	query		number	true	"Latitude"
//	@Param		lon	query		number	true	"Longitude"
//	@Success	200	{object}	models.NearestSchool
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/schools/nearest [get]
func (h *NearestSchoolHandler) Nearest(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameters 'lat' and 'lon'"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude format"})
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude format"})
		return
	}

	school, err := h.service.Nearest(c.Request.Context(), lat, lon)
	if errors.Is(err, service.ErrInvalidCoordinates) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if school == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no school found near the specified coordinates"})
		return
	}

	c.JSON(http.StatusOK, school)
}
