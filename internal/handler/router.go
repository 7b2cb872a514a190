package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups everything the API router serves.
type Handlers struct {
	Dashboard *DashboardHandler
	Nearest   *NearestSchoolHandler
	GeoCode   *GeoCodeHandler
}

// NewRouter registers every route on a gin engine.
func NewRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	api.GET("/schools", h.Dashboard.Schools)
	api.GET("/schools/nearest", h.Nearest.Nearest)
	api.GET("/kpis", h.Dashboard.KPIs)
	api.GET("/map", h.Dashboard.Map)
	api.GET("/cities", h.Dashboard.Cities)
	api.GET("/reviews", h.Dashboard.Reviews)

	r.GET("/geocode", h.GeoCode.GeoCode)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
