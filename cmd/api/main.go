package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isbx/locations/backend/internal/adapters/cache"
	"github.com/isbx/locations/backend/internal/adapters/database"
	"github.com/isbx/locations/backend/internal/adapters/events"
	"github.com/isbx/locations/backend/internal/adapters/memory"
	"github.com/isbx/locations/backend/internal/adapters/providers/timezone"
	"github.com/isbx/locations/backend/internal/api/handlers"
	"github.com/isbx/locations/backend/internal/api/middleware"
	"github.com/isbx/locations/backend/internal/api/routes"
	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/domain/schedule"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/redis"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	"github.com/isbx/locations/backend/pkg/config"
)

// repositorySet is the persistence surface the services are built on
type repositorySet struct {
	Locations     repositories.LocationRepository
	Organizations repositories.OrganizationRepository
	UserLocations repositories.UserLocationRepository
	Hours         repositories.HoursRepository
	Holidays      repositories.HolidayRepository
	Reviews       repositories.ReviewRepository
	CheckIns      repositories.CheckInRepository
	TimeSlots     repositories.DeliveryTimeSlotRepository
}

func postgresRepositories(client *postgres.Client) repositorySet {
	return repositorySet{
		Locations:     database.NewLocationAdapter(client),
		Organizations: database.NewOrganizationAdapter(client),
		UserLocations: database.NewUserLocationAdapter(client),
		Hours:         database.NewHoursAdapter(client),
		Holidays:      database.NewHolidayAdapter(client),
		Reviews:       database.NewReviewAdapter(client),
		CheckIns:      database.NewCheckInAdapter(client),
		TimeSlots:     database.NewDeliveryTimeSlotAdapter(client),
	}
}

func memoryRepositories() repositorySet {
	repos := memory.NewStore(nil).Repositories()
	return repositorySet{
		Locations:     repos.Locations,
		Organizations: repos.Organizations,
		UserLocations: repos.UserLocations,
		Hours:         repos.Hours,
		Holidays:      repos.Holidays,
		Reviews:       repos.Reviews,
		CheckIns:      repos.CheckIns,
		TimeSlots:     repos.TimeSlots,
	}
}

func newTimezoneProvider(cfg config.GeolocationConfig, cacheProvider providers.CacheProvider) (providers.TimezoneProvider, error) {
	if cfg.Provider != "google" {
		return timezone.NewStaticTimezoneProvider(cfg.DefaultTimezone)
	}

	google, err := timezone.NewGoogleTimezoneProvider(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	var provider providers.TimezoneProvider = timezone.NewBreakerTimezoneProvider(google, 5, 30*time.Second)
	if cacheProvider != nil {
		provider = timezone.NewCachedTimezoneProvider(provider, cacheProvider, cfg.CacheTTL)
	}
	return provider, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Persistence
	var repos repositorySet
	switch cfg.Store.Driver {
	case "memory":
		repos = memoryRepositories()
		log.Warn().Msg("using in-memory store; data is lost on restart")
	default:
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		repos = postgresRepositories(pgClient)
	}

	// Redis backs the shared cache and the event bus. The service runs
	// without both when it is unavailable.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; running without cache and events")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "locations")
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}
	if cacheProvider != nil {
		repos.Organizations = database.NewCachedOrganizationAdapter(repos.Organizations, cacheProvider)
	}

	timezones, err := newTimezoneProvider(cfg.Geolocation, cacheProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize timezone provider")
	}

	// Services
	publisher := services.NewEventPublisher(eventBus)
	resolver := schedule.NewResolver(schedule.WithDeliveryFormat(cfg.Search.DeliveryTimeFormat))
	enricher := services.NewHoursEnricher(repos.Hours, repos.Holidays, resolver)
	searchService := services.NewLocationSearchService(repos.Locations, repos.Organizations, enricher,
		services.WithDefaultLimit(cfg.Search.DefaultLimit),
		services.WithNearestRadiusMiles(cfg.Search.NearestRadiusMiles),
	)
	locationService := services.NewLocationService(repos.Locations, repos.Organizations, repos.UserLocations, timezones, searchService, publisher)
	hoursService := services.NewHoursService(repos.Locations, repos.Hours, repos.Holidays, repos.TimeSlots, repos.UserLocations, enricher, publisher)
	reviewService := services.NewReviewService(repos.Locations, repos.Reviews, publisher, services.WithSpamWindow(cfg.Reviews.SpamWindow))
	checkInService := services.NewCheckInService(repos.Locations, repos.CheckIns, publisher, nil)

	// HTTP
	router := routes.NewRouter(
		handlers.NewLocationHandler(searchService, locationService),
		handlers.NewHoursHandler(hoursService),
		handlers.NewReviewHandler(reviewService),
		handlers.NewCheckInHandler(checkInService),
		middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		cfg.Server.CORSOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
