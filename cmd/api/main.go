package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/mansion-engine/internal/config"
	"github.com/jwebster45206/mansion-engine/internal/handlers"
	"github.com/jwebster45206/mansion-engine/internal/logger"
	"github.com/jwebster45206/mansion-engine/internal/middleware"
	"github.com/jwebster45206/mansion-engine/internal/services"
	"github.com/jwebster45206/mansion-engine/internal/services/events"
	"github.com/jwebster45206/mansion-engine/internal/storage"
	"github.com/jwebster45206/mansion-engine/internal/telemetry"
	"github.com/jwebster45206/mansion-engine/pkg/achievement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Mansion Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"store", cfg.StoreBackend,
		"events_enabled", cfg.EventsEnabled)

	tracer := telemetry.NoopTracer()
	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(context.Background())
		if err != nil {
			logger.WithError(log, err).Error("Failed to set up telemetry")
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", "error", err)
			}
		}()
		tracer = telemetry.Tracer("api")
	}

	registry, err := achievement.NewRegistry()
	if err != nil {
		logger.WithError(log, err).Error("Failed to load achievement catalog")
		os.Exit(1)
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storeCancel()
	store, err := storage.Open(storeCtx, cfg, log)
	if err != nil {
		logger.WithError(log, err).Error("Failed to connect to storage")
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	var broadcaster *events.Broadcaster
	if cfg.EventsEnabled {
		if rs, ok := store.(*storage.RedisStore); ok {
			broadcaster = events.NewBroadcaster(rs.Client(), log)
		}
	}

	sessions := services.NewSessionManager(services.SessionManagerOptions{
		Store:             store,
		Broadcaster:       broadcaster,
		Logger:            log,
		Tracer:            tracer,
		Features:          cfg.Features,
		Registry:          registry,
		DefaultDifficulty: cfg.DefaultDifficulty,
		DefeatDelay:       cfg.GhostDefeatDelay,
		IdleTTL:           cfg.SessionIdleTTL,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.RunSweeper(sweepCtx, time.Minute)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, newMux(sessions, broadcaster, log)),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable streaming - the events endpoint holds connections open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...", "live_sessions", sessions.Count())

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func newMux(sessions *services.SessionManager, broadcaster *events.Broadcaster, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(sessions.Store(), sessions, log))

	var eventsHandler http.Handler
	if broadcaster != nil {
		eventsHandler = handlers.NewEventsHandler(broadcaster, sessions, log)
	}
	sessionsHandler := handlers.NewSessionsHandler(sessions, eventsHandler, log)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)

	mux.Handle("/v1/profiles/", handlers.NewStatsHandler(sessions, log))
	return mux
}
