// README: Entry point; loads config, wires providers and services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"atlas/internal/ai"
	"atlas/internal/config"
	"atlas/internal/flights"
	"atlas/internal/hotels"
	httptransport "atlas/internal/http"
	"atlas/internal/infra"
	"atlas/internal/logging"
	"atlas/internal/maps"
	"atlas/internal/modules/conversation"
	"atlas/internal/routes"
	"atlas/internal/service"
	"atlas/internal/trip"
	"atlas/internal/weather"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
	if err != nil {
		logger.Fatal("gemini init: " + err.Error())
	}
	defer provider.Close()

	// Turn history is optional; the dialogue works without Postgres.
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Warn("postgres unavailable, turn history disabled: " + err.Error())
		dbPool = nil
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	flightClient := flights.NewClient(cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret, cfg.Amadeus.BaseURL, logger)
	hotelClient := hotels.NewClient(cfg.Hotels.Token, logger)
	weatherClient := weather.NewClient(cfg.Weather.Key)

	var ground *maps.GroundService
	if cfg.Maps.Key != "" {
		ground, err = maps.NewGroundService(cfg.Maps.Key)
		if err != nil {
			logger.Warn("maps init failed, drive estimates disabled: " + err.Error())
		}
	}

	var estimator routes.GroundEstimator
	if ground != nil {
		estimator = ground
	}
	resolver := routes.NewResolver(flightClient, flightClient, provider, estimator, routes.Config{
		CandidateCap:  cfg.Routes.CandidateCap,
		MaxConcurrent: cfg.Routes.MaxConcurrent,
	}, logger)

	dates := trip.NewDateNormalizer(provider)
	extractor := trip.NewSlotExtractor(provider, dates, logger)
	controller := trip.NewController(
		extractor, provider, flightClient, hotelClient, weatherClient, resolver,
		cfg.Dialogue.RequiredSlots, logger,
	)

	store := conversation.NewStore(conversation.NewRedisBackend(redisClient), dbPool)
	sessions := conversation.NewService(store)
	planner := service.NewPlanner(controller, sessions, logger)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(planner, cfg.HTTP.FrontendOrigin, logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening on " + cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err.Error())
	}
}
