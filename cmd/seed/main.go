package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/monitoring"
	"github.com/azure/mentions-dashboard/internal/notifications"
	"github.com/azure/mentions-dashboard/internal/scraper"
	"github.com/azure/mentions-dashboard/internal/sentiment"
	"github.com/azure/mentions-dashboard/internal/storage"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "", "YAML seed file (defaults to the built-in sample data)")
	flag.Parse()

	color.Cyan("🌱 Mentions Dashboard - Seed")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var data []byte
	if *file != "" {
		data, err = os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read seed file: %v", err)
		}
	}
	seed, err := parseSeed(data)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	synthesizer, err := scraper.NewSynthesizer()
	if err != nil {
		log.Fatalf("Failed to initialize synthesizer: %v", err)
	}
	service := monitoring.NewService(cfg, store, synthesizer, sentiment.New(cfg), notifications.NewService(cfg), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summary, err := applySeed(ctx, store, service, seed, time.Now())
	if err != nil {
		color.Red("❌ Seed failed: %v", err)
		os.Exit(1)
	}

	color.Green("✅ Seed completed: %d tags, %d search queries, %d mentions", summary.Tags, summary.Queries, summary.Mentions)
	if summary.Skipped > 0 {
		color.Yellow("⚠️  %d existing tags skipped", summary.Skipped)
	}
}
