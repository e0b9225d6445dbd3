package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/azure/mentions-dashboard/internal/scraper"
	"github.com/azure/mentions-dashboard/internal/sentiment"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	classify := flag.Bool("classify", true, "classify each synthesized mention")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-classify=false] <query> [query...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	color.Cyan("🔍 Mentions Dashboard - Search Preview")
	fmt.Println(strings.Repeat("=", 40))

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	synthesizer, err := scraper.NewSynthesizer()
	if err != nil {
		log.Fatalf("Failed to initialize synthesizer: %v", err)
	}
	classifier := sentiment.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, query := range flag.Args() {
		drafts := synthesizer.Synthesize(ctx, query)
		fmt.Printf("\n🔸 %q: %d mentions\n", query, len(drafts))
		for _, d := range drafts {
			printDraft(ctx, classifier, d, *classify)
		}
	}

	if *classify {
		fmt.Printf("\n💡 Classified with the %s classifier\n", classifier.Name())
	}
}

func printDraft(ctx context.Context, classifier sentiment.Classifier, d models.MentionDraft, classify bool) {
	fmt.Printf("   [%s] %s (%s)\n", d.Source, d.Content, d.PublishedAt.Format(time.RFC3339))
	if !classify {
		return
	}

	result, err := classifier.Classify(ctx, d.Content)
	if err != nil {
		color.Red("      ❌ %v", err)
		return
	}

	label := fmt.Sprintf("%s (%.2f)", result.Sentiment, result.Confidence)
	switch result.Sentiment {
	case models.SentimentPositive:
		color.Green("      %s", label)
	case models.SentimentNegative:
		color.Red("      %s", label)
	default:
		color.Yellow("      %s", label)
	}
}
