package handler

import (
	"context"
	"net/http"
	"strconv"

	"school-scraper/internal/models"
	"school-scraper/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DashboardService interface for dependency injection
type DashboardService interface {
	Schools(context.Context, service.Filter) ([]models.EnrichedListing, error)
	KPIs(context.Context, service.Filter) (models.KPIs, error)
	MapPoints(context.Context, service.Filter) ([]models.MapPoint, error)
	Cities(context.Context) ([]string, error)
	Reviews(ctx context.Context, school, address string) ([]models.Review, error)
}

// DashboardHandler serves the school performance dashboard
type DashboardHandler struct {
	service DashboardService
}

func NewDashboardHandler(svc DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

func parseFilter(c *gin.Context) (service.Filter, bool) {
	f := service.Filter{
		Query:              c.Query("q"),
		Cities:             c.QueryArray("city"),
		Grades:             c.QueryArray("grade"),
		Types:              c.QueryArray("type"),
		Category:           c.Query("category"),
		IncludeUnavailable: true,
	}
	if raw, ok := c.GetQuery("include_unavailable"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid include_unavailable format"})
			return f, false
		}
		f.IncludeUnavailable = v
	}
	return f, true
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// Schools handles GET /api/schools requests
//
//	@Summary	List located schools of the latest batch
//	@Tags		schools
//	@Produce	json
//	@Param		q					query		string		false	"Name contains"
//	@Param		city				query		[]string	false	"City, repeatable"
//	@Param		grade				query		[]string	false	"Pre-K, Elementary, Middle or High"
//	@Param		type				query		[]string	false	"Private, Public District or Public Charter"
//	@Param		category			query		string		false	"Score category"
//	@Param		include_unavailable	query		bool		false	"Keep schools without a composite score"
//	@Success	200					{array}		models.EnrichedListing
//	@Failure	400					{object}	ErrorResponse
//	@Router		/api/schools [get]
func (h *DashboardHandler) Schools(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	rows, err := h.service.Schools(c.Request.Context(), f)
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// KPIs handles GET /api/kpis requests
//
//	@Summary	Headline figures for the filtered schools
//	@Tags		dashboard
//	@Produce	json
//	@Success	200	{object}	models.KPIs
//	@Failure	400	{object}	ErrorResponse
//	@Router		/api/kpis [get]
func (h *DashboardHandler) KPIs(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	kpis, err := h.service.KPIs(c.Request.Context(), f)
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// Map handles GET /api/map requests
//
//	@Summary	Map markers for the filtered schools
//	@Tags		dashboard
//	@Produce	json
//	@Success	200	{array}		models.MapPoint
//	@Failure	400	{object}	ErrorResponse
//	@Router		/api/map [get]
func (h *DashboardHandler) Map(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	points, err := h.service.MapPoints(c.Request.Context(), f)
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, points)
}

// Cities handles GET /api/cities requests
//
//	@Summary	Cities present in the latest batch
//	@Tags		dashboard
//	@Produce	json
//	@Success	200	{array}	string
//	@Router		/api/cities [get]
func (h *DashboardHandler) Cities(c *gin.Context) {
	cities, err := h.service.Cities(c.Request.Context())
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, cities)
}

// Reviews handles GET /api/reviews requests
//
//	@Summary	Stored reviews of one school
//	@Tags		schools
//	@Produce	json
//	@Param		school	query		string	true	"School name"
//	@Param		address	query		string	false	"School address"
//	@Success	200		{array}		models.Review
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/reviews [get]
func (h *DashboardHandler) Reviews(c *gin.Context) {
	school := c.Query("school")
	if school == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'school'"})
		return
	}
	reviews, err := h.service.Reviews(c.Request.Context(), school, c.Query("address"))
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, reviews)
}
