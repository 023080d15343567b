package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/apexcapital/loadstar-pipeline/internal/database"
	"github.com/apexcapital/loadstar-pipeline/internal/pipeline"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

func main() {
	fmt.Println("🎯 Loadstar Golden Record Refresh Pipeline")
	fmt.Println("==========================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	refreshPipeline := pipeline.New(db, cfg)

	fmt.Println("📋 Pipeline Configuration:")
	fmt.Printf("   • Refresh Interval: %v\n", cfg.RefreshInterval())
	fmt.Printf("   • Geo Cell Precision: %d\n", cfg.GeoCellPrecision)
	fmt.Printf("   • Recommendation Batch: %d rows\n", cfg.RecommendationBatch)
	fmt.Println()

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		stats, err := refreshPipeline.RunOnce(context.Background())
		if err != nil {
			log.Fatalf("❌ One-time refresh failed: %v", err)
		}

		fmt.Println("✅ One-time refresh completed!")
		fmt.Printf("   • Duration: %v\n", stats.Duration.Round(time.Millisecond))
		fmt.Printf("   • Profiles Published: %d\n", stats.Materialize.ProfilesWritten)
		fmt.Printf("   • Zero Activity Brokers: %d\n", stats.Materialize.ZeroActivity)
		fmt.Printf("   • Pairs Scored: %d\n", stats.Rebuild.PairsScored)
		fmt.Printf("   • Unresolved Pairs: %d\n", stats.Rebuild.UnresolvedPairs)
		return
	}

	if err := refreshPipeline.Start(); err != nil {
		log.Fatalf("❌ Failed to start pipeline: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("🚀 Refresh pipeline is running...")
	fmt.Println("Press Ctrl+C to stop gracefully")

	<-sigChan
	fmt.Println("\n🛑 Shutdown signal received, stopping pipeline...")

	if err := refreshPipeline.Stop(); err != nil {
		log.Printf("❌ Error stopping pipeline: %v", err)
	} else {
		fmt.Println("✅ Pipeline stopped successfully")
	}
}
