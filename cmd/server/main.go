package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/user/fleet-dashboard-api/internal/config"
	"github.com/user/fleet-dashboard-api/internal/handlers"
	"github.com/user/fleet-dashboard-api/internal/middleware"
	"github.com/user/fleet-dashboard-api/internal/repository"
	"github.com/user/fleet-dashboard-api/internal/services/auth"
	"github.com/user/fleet-dashboard-api/internal/services/backend"
	"github.com/user/fleet-dashboard-api/internal/services/gateway"
	"github.com/user/fleet-dashboard-api/internal/services/routecache"
	"github.com/user/fleet-dashboard-api/internal/store"
	"github.com/user/fleet-dashboard-api/internal/ws"
)

func main() {
	// .env is optional; real deployments configure via environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := repository.NewRepository(db)

	auth.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration())
	auth.EnsureAdminUser(repo, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))

	backendClient := backend.NewClient(cfg.Backend)
	gatewayClient := gateway.NewClient(cfg.Gateway)
	cache := routecache.New(cfg.Redis)
	if cache.Enabled() {
		log.Printf("Route cache enabled at %s", cfg.Redis.Addr)
	}

	var vesselStore *store.Store
	hub := ws.NewHub(func() interface{} { return vesselStore.GetSnapshot() })
	vesselStore = store.New(backendClient, repo, hub)
	go hub.Run()

	vesselStore.LoadPersistedSelection()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		vesselStore.FetchVessels(ctx)
	}()

	// Hourly background refresh keeps the collection current even when no
	// operator triggers one.
	scheduler := cron.New(cron.WithLocation(time.UTC))
	scheduler.AddFunc("0 * * * *", func() {
		log.Println("[Cron] hourly vessel refresh")
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		vesselStore.RefreshVessels(ctx)
	})
	scheduler.Start()

	h := handlers.NewHandler(repo, vesselStore, backendClient, cache)
	relay := handlers.NewRelayHandler(gatewayClient, vesselStore, repo)
	authHandler := auth.NewAuthHandler(repo)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth())
		{
			protected.GET("/auth/me", authHandler.GetCurrentUser)

			protected.GET("/vessels", h.GetVessels)
			protected.POST("/vessels/refresh", h.RefreshVessels)
			protected.POST("/vessels", middleware.RequireAdmin(), h.AddVessel)
			protected.POST("/vessels/check-serial", h.CheckSerial)
			protected.POST("/vessels/check-vpnip", h.CheckVPNIP)
			protected.POST("/vessels/check-id", h.CheckVesselID)
			protected.POST("/vessels/device-credentials", middleware.RequireAdmin(), h.RegisterDeviceCredentials)
			protected.GET("/vessels/:id/route", h.GetVesselRoute)
			protected.GET("/vessels/:id/usage", h.GetVesselUsage)
			protected.GET("/vessels/:id/usage/report.pdf", h.GetUsageReportPDF)

			protected.GET("/selection", h.GetSelection)
			protected.PUT("/selection", h.SetSelection)
			protected.DELETE("/selection", h.ClearSelection)

			protected.GET("/search", h.Search)
			protected.GET("/accounts", h.GetAccounts)
			protected.GET("/audit", middleware.RequireAdmin(), h.GetAudit)

			relayGroup := protected.Group("/relay/:id")
			relayGroup.Use(middleware.RelayRateLimit(cfg.Relay))
			{
				relayGroup.GET("/crew", relay.GetCrewUsers)
				relayGroup.GET("/crew/export.csv", relay.ExportCrewCSV)
				relayGroup.POST("/crew/check-password", relay.CheckCrewPassword)
				relayGroup.POST("/crew/bulk", middleware.RequireAdmin(), relay.BulkCrewAction)
				relayGroup.GET("/interfaces", relay.GetInterfaces)
				relayGroup.GET("/portforward", relay.GetPortForwards)
				relayGroup.PUT("/portforward/:index", middleware.RequireAdmin(), relay.SavePortForward)
				relayGroup.POST("/portforward/:index/toggle", middleware.RequireAdmin(), relay.TogglePortForward)
			}
		}
	}

	router.GET("/ws", func(c *gin.Context) {
		hub.Serve(c.Writer, c.Request)
	})

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Fleet dashboard API listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
