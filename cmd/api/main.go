package main

import (
	"context"

	_ "school-scraper/docs"
	"school-scraper/internal/config"
	"school-scraper/internal/geocoder"
	"school-scraper/internal/handler"
	"school-scraper/internal/logger"
	"school-scraper/internal/repository"
	"school-scraper/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Setup(config.Log)

	// Warehouse connection
	repo, err := repository.Open(context.Background(), config.Warehouse)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to warehouse")
	}
	defer repo.Close()

	// Initialize layers
	geoCodeService := service.NewGeoCodeService(geocoder.NewClient(geocoder.Options{
		BaseURL:    config.Geocoder.BaseURL,
		UserAgent:  config.Geocoder.UserAgent,
		Email:      config.Geocoder.Email,
		Timeout:    config.Geocoder.Timeout,
		MinDelay:   config.Geocoder.MinDelay,
		MaxRetries: config.Geocoder.MaxRetries,
		ErrorWait:  config.Geocoder.ErrorWait,
	}), config.Geocoder.CacheSize)
	dashboardService := service.NewDashboardService(repo)
	nearestService := service.NewNearestSchoolService(repo)

	r := handler.NewRouter(handler.Handlers{
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Nearest:   handler.NewNearestSchoolHandler(nearestService),
		GeoCode:   handler.NewGeoCodeHandler(geoCodeService),
	})

	log.Info().Str("address", config.ServerAddress).Msg("starting dashboard api")
	if err := r.Run(config.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
