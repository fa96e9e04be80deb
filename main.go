package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enterprise-email/phishguard/brandimpersonation"
	"github.com/enterprise-email/phishguard/cache"
	"github.com/enterprise-email/phishguard/composite"
	"github.com/enterprise-email/phishguard/config"
	"github.com/enterprise-email/phishguard/extractor"
	"github.com/enterprise-email/phishguard/heuristics"
	"github.com/enterprise-email/phishguard/lookalike"
	"github.com/enterprise-email/phishguard/mlscorer"
	"github.com/enterprise-email/phishguard/pipeline"
	"github.com/enterprise-email/phishguard/server"
	"github.com/enterprise-email/phishguard/threatintel"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENVIRONMENT") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger := log.With().Str("service", "phishguard").Logger()
	logger.Info().Msg("Starting PhishGuard threat-scoring service")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is an optional cache backend: a down Redis degrades
	// the service to an in-memory cache rather than failing startup.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable at startup, cache will fall back to in-memory")
	} else {
		logger.Info().Msg("Connected to Redis")
	}
	pingCancel()

	memCache := cache.New(redisClient, cfg.Cache.MaxEntries, logger)
	threatCache := cache.NewThreatCache(memCache, cfg.Cache.TTLPositive, cfg.Cache.TTLNegative)

	extractorSvc := extractor.New(extractor.ProbeConfig{
		TLSTimeout:   cfg.Scoring.TLSProbeTimeout,
		WHOISTimeout: cfg.Scoring.WHOISProbeTimeout,
	}, logger)

	heuristicScorer := heuristics.New(logger)
	lookalikeDetector := lookalike.New(logger)
	brandDetector := brandimpersonation.New(logger)

	threatIntelAggregator := threatintel.New(cfg.ThreatIntel, cfg.RateLimit, threatCache, logger)
	mlScorer := mlscorer.New(cfg.ML, logger)
	compositeScorer := composite.New(cfg.Scoring)

	analysisPipeline := pipeline.New(
		threatCache,
		extractorSvc,
		heuristicScorer,
		lookalikeDetector,
		brandDetector,
		threatIntelAggregator,
		mlScorer,
		compositeScorer,
		logger,
	)

	handler := server.NewHandler(analysisPipeline, threatIntelAggregator, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
