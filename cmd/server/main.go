package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"khumo/server/config"
	"khumo/server/internal/api"
	"khumo/server/internal/database"
	"khumo/server/internal/intel"
	"khumo/server/internal/processor"
	"khumo/server/internal/queue"
	"khumo/server/internal/search"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.Server.DBPath)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	db, err := database.NewDatabase(cfg.Server.DBPath, cacheTTL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Second handle on the same database for the GORM-backed ingest path
	gdb, err := gorm.Open(sqlite.Open(cfg.Server.DBPath), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to open GORM connection")
	}

	listingQueue := queue.NewListingQueue(cfg.BatchProcessing.QueueSize, logger)
	listingQueue.Start()
	defer listingQueue.Close()

	batchProcessor := processor.NewBatchProcessor(gdb, db, listingQueue, cfg, logger)
	batchProcessor.Start()
	defer batchProcessor.Stop()

	intelTimeout := time.Duration(cfg.Intel.TimeoutSeconds) * time.Second
	intelClient := intel.NewClient(cfg.Intel.BaseURL, cfg.Intel.APIKey, intelTimeout, logger)
	if !intelClient.Enabled() {
		logger.Warn("INTEL_API_KEY not set, external intelligence disabled; searches will be local-only")
	}

	aggregator := search.NewAggregator(db, intelClient, cfg.Search.DefaultLimit, cfg.Search.MaxLimit, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	handler := api.NewHandler(db, aggregator, listingQueue, logger)
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
