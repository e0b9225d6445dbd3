package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/mentions-dashboard/internal/api"
	"github.com/azure/mentions-dashboard/internal/archive"
	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/monitoring"
	"github.com/azure/mentions-dashboard/internal/notifications"
	"github.com/azure/mentions-dashboard/internal/scheduler"
	"github.com/azure/mentions-dashboard/internal/scraper"
	"github.com/azure/mentions-dashboard/internal/sentiment"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Mentions Dashboard API")

	// Initialize storage
	store, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	logrus.Infof("Using %s storage", cfg.DatabaseDriver)

	synthesizer, err := scraper.NewSynthesizer()
	if err != nil {
		logrus.Fatalf("Failed to initialize synthesizer: %v", err)
	}

	classifier := sentiment.New(cfg)
	logrus.Infof("Using %s sentiment classifier", classifier.Name())

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Report archive is optional
	var reportArchive archive.ArchiveInterface
	if cfg.StorageAccount != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		azureArchive, err := archive.NewAzureArchive(ctx, cfg.StorageAccount, cfg.StorageContainer)
		cancel()
		if err != nil {
			logrus.Fatalf("Failed to initialize report archive: %v", err)
		}
		reportArchive = azureArchive
	}

	// Initialize monitoring service
	monitoringService := monitoring.NewService(cfg, store, synthesizer, classifier, notificationService, reportArchive).
		WithSuggester(sentiment.NewSuggester(cfg)).
		WithSummarizer(sentiment.NewSummarizer(cfg))

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, monitoringService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewServer(cfg, store, monitoringService).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // collect runs classify every new mention inline
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
