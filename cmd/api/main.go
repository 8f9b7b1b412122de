package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"meterflow/internal/api/handlers"
	"meterflow/internal/api/middleware"
	"meterflow/internal/cache"
	"meterflow/internal/config"
	"meterflow/internal/data"
	"meterflow/internal/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open series store: %v", err)
	}
	defer closeStore()

	consolidated := cache.New(store)
	client := data.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token, cfg.Provider.Timeout())
	planner := data.NewPlanner(client)
	syncer := service.NewSyncer(planner, consolidated, log.Default())

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())

	h := handlers.New(cfg, consolidated, syncer, log.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/meters/:id/sync", h.Sync)
		api.GET("/meters/:id/status", h.Status)

		api.GET("/meters/:id/summary", h.Summary)
		api.GET("/meters/:id/monthly", h.Monthly)
		api.GET("/meters/:id/offpeak", h.Offpeak)
		api.GET("/meters/:id/loadcurve", h.LoadCurve)
		api.GET("/meters/:id/maxpower", h.MaxPower)

		api.DELETE("/meters/:id/cache", h.ClearMeterCache)
		api.DELETE("/cache", h.ClearCache)

		api.GET("/events", h.Events)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openStore(cfg *config.Config) (cache.Store, func(), error) {
	switch cfg.Cache.Driver {
	case "postgres":
		s, err := cache.OpenPostgres(context.Background(), cfg.Cache.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "file":
		s, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return cache.NewMemoryStore(), func() {}, nil
	}
}
