package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"demand-scout/internal/config"
	"demand-scout/internal/database"
	"demand-scout/internal/handlers"
	"demand-scout/internal/logging"
	"demand-scout/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to configure logging:", err)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize and start background workers
	workerService := worker.NewService(cfg, database.DB, logger)
	if err := workerService.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start background workers")
	}

	// Setup graceful shutdown
	setupGracefulShutdown(workerService, logger)

	// Setup HTTP server
	setupServer(cfg, workerService)
}

func setupGracefulShutdown(workerService *worker.Service, logger zerolog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info().Msg("received shutdown signal, gracefully shutting down")

		workerService.Stop()
		database.Close()

		logger.Info().Msg("shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(cfg *config.Config, workerService *worker.Service) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	statusHandler := handlers.NewStatusHandler(database.DB, workerService)
	opportunityHandler := handlers.NewOpportunityHandler(database.DB)
	clusterHandler := handlers.NewClusterHandler(database.DB)
	adminHandler := handlers.NewAdminHandler(workerService)

	// Health check
	r.GET("/health", statusHandler.HealthCheck)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/stats", statusHandler.PipelineStats)

		opportunities := api.Group("/opportunities")
		{
			opportunities.GET("", opportunityHandler.ListOpportunities)
			opportunities.GET("/:id", opportunityHandler.GetOpportunity)
		}

		api.GET("/clusters", clusterHandler.ListClusters)

		workerGroup := api.Group("/worker")
		{
			workerGroup.GET("/status", statusHandler.WorkerStatus)
		}
	}

	// Admin routes (password protected)
	admin := r.Group("/admin", adminHandler.AdminAuth())
	{
		admin.POST("/ingest/:channel", adminHandler.TriggerIngest)
		admin.POST("/backfill/:channel", adminHandler.TriggerBackfill)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
