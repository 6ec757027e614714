package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isbx/locations/backend/internal/adapters/database"
	"github.com/isbx/locations/backend/internal/adapters/providers/timezone"
	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	"github.com/isbx/locations/backend/pkg/config"
)

func main() {
	var workers int
	var maxRetries int
	var locationID int64

	flag.IntVar(&workers, "workers", 3, "Number of concurrent workers")
	flag.IntVar(&maxRetries, "max-retries", 3, "Max timezone lookups per location")
	flag.Int64Var(&locationID, "location", 0, "Single location ID to backfill")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-backfill", cfg.Environment, cfg.LogLevel)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	var zones providers.TimezoneProvider
	if cfg.Geolocation.Provider == "google" {
		google, err := timezone.NewGoogleTimezoneProvider(cfg.Geolocation.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create timezone provider")
		}
		zones = timezone.NewBreakerTimezoneProvider(google, 5, 30*time.Second)
	} else {
		static, err := timezone.NewStaticTimezoneProvider(cfg.Geolocation.DefaultTimezone)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create timezone provider")
		}
		zones = static
	}

	svc := services.NewTimezoneBackfillService(database.NewLocationAdapter(pgClient), zones, workers, maxRetries)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	if locationID != 0 {
		if err := svc.BackfillSingle(ctx, locationID); err != nil {
			log.Fatal().Err(err).Int64("location_id", locationID).Msg("failed to backfill location")
		}
		log.Info().Int64("location_id", locationID).Msg("backfilled location")
		return
	}

	log.Info().Int("workers", workers).Msg("starting timezone backfill")
	summary, err := svc.BackfillAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("backfill stopped early")
	}
	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("processed", summary.TotalProcessed).
		Int("success", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Msg("backfill complete")
}
