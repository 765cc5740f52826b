// README: Interactive terminal chat against the trip planner, no server required.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"atlas/internal/ai"
	"atlas/internal/config"
	"atlas/internal/flights"
	"atlas/internal/hotels"
	"atlas/internal/logging"
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

	ctx := context.Background()

	provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer provider.Close()

	flightClient := flights.NewClient(cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret, cfg.Amadeus.BaseURL, logger)
	hotelClient := hotels.NewClient(cfg.Hotels.Token, logger)
	weatherClient := weather.NewClient(cfg.Weather.Key)

	resolver := routes.NewResolver(flightClient, flightClient, provider, nil, routes.Config{
		CandidateCap:  cfg.Routes.CandidateCap,
		MaxConcurrent: cfg.Routes.MaxConcurrent,
	}, logger)

	dates := trip.NewDateNormalizer(provider)
	extractor := trip.NewSlotExtractor(provider, dates, logger)
	controller := trip.NewController(
		extractor, provider, flightClient, hotelClient, weatherClient, resolver,
		cfg.Dialogue.RequiredSlots, logger,
	)

	store := conversation.NewStore(conversation.NewMemoryBackend(), nil)
	planner := service.NewPlanner(controller, conversation.NewService(store), logger)

	fmt.Println("Travel planner. Type 'exit' to quit.")
	fmt.Println()

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" {
			continue
		}
		if msg == "exit" || msg == "quit" {
			break
		}

		id, reply, err := planner.HandleTurn(ctx, sessionID, msg)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		sessionID = id
		fmt.Printf("\nPlanner: %s\n\n", reply.Message)
	}
}
