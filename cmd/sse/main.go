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

	"github.com/isbx/locations/backend/internal/adapters/events"
	"github.com/isbx/locations/backend/internal/api/handlers"
	"github.com/isbx/locations/backend/internal/api/middleware"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/redis"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	"github.com/isbx/locations/backend/pkg/config"
)

// main serves location event streams. Streams are long-lived, so this
// server has no write timeout.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-sse", cfg.Environment, cfg.LogLevel)

	// Redis is required: every stream is a pub/sub subscription
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	streamHandler := handlers.NewEventStreamHandler(eventBus)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/stream/locations", streamHandler.StreamLocationEvents)
	mux.HandleFunc("GET /api/stream/locations/{id}", streamHandler.StreamLocationUpdates)
	mux.HandleFunc("GET /api/stream/stats", streamHandler.Stats)

	var handler http.Handler = middleware.RecordRoute(mux)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.Server.CORSOrigins)(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("stream server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("stream server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("stream server shutting down")

	// Closing the bus first ends every open stream so Shutdown can drain
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("stream server stopped")
}
