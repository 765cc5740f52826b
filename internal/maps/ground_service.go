// README: Google Maps Directions wrapper for airport-to-destination drive estimates.
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// GroundService estimates ground transport between a gateway airport and a
// final destination, for destinations with no airport of their own.
type GroundService struct {
	client *maps.Client
}

// NewGroundService creates a GroundService with the given API Key.
func NewGroundService(apiKey string) (*GroundService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GroundService{client: client}, nil
}

// DriveEstimate returns the driving duration and distance string from origin
// to destination.
func (s *GroundService) DriveEstimate(ctx context.Context, origin, destination string) (time.Duration, string, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Language:    "en",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, "", fmt.Errorf("maps api error: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, "", fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return leg.Duration, leg.Distance.HumanReadable, nil
}
