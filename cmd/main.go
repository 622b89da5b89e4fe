package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/mahmoud-the-dev/Propmatch/internal/app"
	"github.com/mahmoud-the-dev/Propmatch/internal/cache"
	"github.com/mahmoud-the-dev/Propmatch/internal/config"
	"github.com/mahmoud-the-dev/Propmatch/internal/controllers"
	"github.com/mahmoud-the-dev/Propmatch/internal/middleware"
	"github.com/mahmoud-the-dev/Propmatch/internal/repositories"
	"github.com/mahmoud-the-dev/Propmatch/internal/routes"
	"github.com/mahmoud-the-dev/Propmatch/internal/services"
	"github.com/mahmoud-the-dev/Propmatch/internal/storage"
	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize listings-service:", err)
	}
	defer application.Close()

	propRepo := repositories.NewPropertyRepository(application.DB)
	imageRepo := repositories.NewPropertyImageRepository(application.DB)

	objectStore, err := storage.NewS3ObjectStore(cfg.Storage)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize object store:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	listingCache := cache.NewRedisListingCache(rdb)

	propertyService := services.NewPropertyService(propRepo, imageRepo, objectStore, listingCache)
	sweeper := services.NewOrphanSweeperService(imageRepo, objectStore, services.DefaultSweepGrace)

	propertiesController := controllers.NewPropertiesController(propertyService)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PropertiesSearch, propertiesController.SearchPropertiesHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	// /my must register before /{id} so mux does not swallow it
	secured.HandleFunc(routes.PropertiesMy, propertiesController.ListMyPropertiesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PropertiesBase, propertiesController.CreatePropertyHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.PropertyByID, propertiesController.UpdatePropertyHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.PropertyByID, propertiesController.DeletePropertyHandler).Methods(http.MethodDelete)

	router.HandleFunc(routes.PropertyByID, propertiesController.GetPropertyHandler).Methods(http.MethodGet)

	c := cron.New()
	_, sweepErr := c.AddFunc("15 3 * * *", func() {
		if e := sweeper.Sweep(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled orphan sweep failed")
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule orphan sweep cron")
	}
	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("listings-service failed to start:", err)
	}
}
