// README: Alternative-route discovery when a direct flight search comes back empty.
package routes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"atlas/internal/ai"
	"atlas/internal/flights"
)

// Candidate kinds, in discovery order. Later kinds are more costly to
// compute and only run while the candidate cap is unsatisfied.
type Kind string

const (
	KindDirect          Kind = "direct"
	KindNearbyOrigin    Kind = "nearby_origin"
	KindNearbyDest      Kind = "nearby_dest"
	KindHubConnection   Kind = "hub_connection"
	KindOracleSuggested Kind = "oracle_suggested"
)

// Leg is one flight segment of a candidate with its offers.
type Leg struct {
	OriginCode      string          `json:"origin_code"`
	DestinationCode string          `json:"destination_code"`
	Offers          []flights.Offer `json:"offers"`
}

// Candidate is one possible way to connect origin and destination.
type Candidate struct {
	Kind            Kind   `json:"kind"`
	OriginCode      string `json:"origin_code"`
	DestinationCode string `json:"destination_code"`
	HubCode         string `json:"hub_code,omitempty"`
	Legs            []Leg  `json:"legs"`
	Rationale       string `json:"rationale"`
	GroundTransport string `json:"ground_transport,omitempty"`
}

// FlightSearcher searches offers between two location codes on a date.
type FlightSearcher interface {
	Search(ctx context.Context, originCode, destinationCode, date string) ([]flights.Offer, error)
}

// CityResolver resolves a free-text city name to a location code and never
// fails; unknown input yields a derived fallback code.
type CityResolver interface {
	ResolveCity(ctx context.Context, cityName string) string
}

// RouteOracle proposes alternative itineraries.
type RouteOracle interface {
	SuggestRoutes(ctx context.Context, query ai.RouteQuery) ([]ai.RouteSuggestion, error)
}

// GroundEstimator estimates the drive from a gateway airport to the final
// destination. May be absent.
type GroundEstimator interface {
	DriveEstimate(ctx context.Context, origin, destination string) (time.Duration, string, error)
}

// Config tunes the resolver. Zero values fall back to defaults; the seed
// tables are used unless replacements are provided.
type Config struct {
	CandidateCap  int
	MaxConcurrent int

	SpecialDestinations map[string][]string
	NearbyAirports      map[string][]string
	Hubs                []string
}

// Resolver generates and verifies alternative itineraries.
type Resolver struct {
	flights FlightSearcher
	cities  CityResolver
	oracle  RouteOracle
	ground  GroundEstimator
	cfg     Config
	log     *zap.Logger
}

func NewResolver(fs FlightSearcher, cities CityResolver, oracle RouteOracle, ground GroundEstimator, cfg Config, log *zap.Logger) *Resolver {
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = 6
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.SpecialDestinations == nil {
		cfg.SpecialDestinations = specialDestinations
	}
	if cfg.NearbyAirports == nil {
		cfg.NearbyAirports = nearbyAirports
	}
	if cfg.Hubs == nil {
		cfg.Hubs = hubAirports
	}
	return &Resolver{flights: fs, cities: cities, oracle: oracle, ground: ground, cfg: cfg, log: log}
}

// attempt describes one candidate to verify against the flight provider.
type attempt struct {
	kind            Kind
	originCode      string
	destinationCode string
	hubCode         string
	rationale       string
	ground          string
}

// FindAlternatives explores alternative itineraries after a direct search
// returned nothing. Strategies run in discovery order (special-destination
// gateways, oracle suggestions, nearby-origin, nearby-destination, hub
// connections) and stop once the candidate cap is reached. Individual
// lookup failures only drop that candidate; a fully failed resolution
// returns an empty list, never an error.
func (r *Resolver) FindAlternatives(ctx context.Context, originCity, destinationCity, date string) []Candidate {
	originCode := r.cities.ResolveCity(ctx, originCity)
	destCode := r.cities.ResolveCity(ctx, destinationCity)

	special := normalizeDestName(destinationCity)
	gateways := r.cfg.SpecialDestinations[special]
	if gateways == nil {
		special = ""
	}

	var out []Candidate

	// Curated gateways for special destinations come first: they encode
	// domain knowledge a geographic table would miss.
	if len(gateways) > 0 {
		var atts []attempt
		for _, gw := range gateways {
			atts = append(atts, attempt{
				kind:            KindNearbyDest,
				originCode:      originCode,
				destinationCode: gw,
				rationale:       fmt.Sprintf("%s is a gateway airport for %s", gw, destinationCity),
				ground:          r.groundTransport(ctx, gw, destinationCity),
			})
		}
		out = r.runAttempts(ctx, atts, date, out)
	}

	if len(out) < r.cfg.CandidateCap && r.oracle != nil {
		out = r.runAttempts(ctx, r.oracleAttempts(ctx, originCode, destCode, date, special, gateways), date, out)
	}

	if len(out) < r.cfg.CandidateCap {
		var atts []attempt
		for _, alt := range r.cfg.NearbyAirports[originCode] {
			atts = append(atts, attempt{
				kind:            KindNearbyOrigin,
				originCode:      alt,
				destinationCode: destCode,
				rationale:       fmt.Sprintf("%s is an alternate departure airport near %s", alt, originCity),
			})
		}
		out = r.runAttempts(ctx, atts, date, out)
	}

	if len(out) < r.cfg.CandidateCap {
		var atts []attempt
		for _, alt := range r.cfg.NearbyAirports[destCode] {
			atts = append(atts, attempt{
				kind:            KindNearbyDest,
				originCode:      originCode,
				destinationCode: alt,
				rationale:       fmt.Sprintf("%s is an alternate arrival airport near %s", alt, destinationCity),
			})
		}
		out = r.runAttempts(ctx, atts, date, out)
	}

	if len(out) < r.cfg.CandidateCap {
		var atts []attempt
		for _, hub := range r.cfg.Hubs {
			if hub == originCode || hub == destCode {
				continue
			}
			atts = append(atts, attempt{
				kind:            KindHubConnection,
				originCode:      originCode,
				destinationCode: destCode,
				hubCode:         hub,
				rationale:       fmt.Sprintf("connect through %s", hub),
			})
		}
		out = r.runAttempts(ctx, atts, date, out)
	}

	return out
}

// oracleAttempts converts oracle suggestions into attempts, skipping invalid
// or partial items rather than aborting the resolution.
func (r *Resolver) oracleAttempts(ctx context.Context, originCode, destCode, date, special string, gateways []string) []attempt {
	suggestions, err := r.oracle.SuggestRoutes(ctx, ai.RouteQuery{
		OriginCode:         originCode,
		DestinationCode:    destCode,
		Date:               date,
		SpecialDestination: special,
		GatewayAirports:    gateways,
	})
	if err != nil {
		r.log.Warn("oracle route suggestions failed", zap.Error(err))
		return nil
	}

	var atts []attempt
	for _, s := range suggestions {
		if !validCode(s.OriginCode) || !validCode(s.DestinationCode) {
			continue
		}
		kind := KindOracleSuggested
		if s.Kind == string(KindHubConnection) {
			if !validCode(s.HubCode) {
				continue
			}
			kind = KindHubConnection
		}
		atts = append(atts, attempt{
			kind:            kind,
			originCode:      s.OriginCode,
			destinationCode: s.DestinationCode,
			hubCode:         s.HubCode,
			rationale:       s.Rationale,
		})
	}
	return atts
}

// runAttempts verifies attempts against the flight provider, concurrently but
// bounded, preserving input order among successes and honoring the cap.
func (r *Resolver) runAttempts(ctx context.Context, atts []attempt, date string, out []Candidate) []Candidate {
	if len(atts) == 0 {
		return out
	}

	remaining := r.cfg.CandidateCap - len(out)
	if remaining <= 0 {
		return out
	}
	if len(atts) > remaining {
		// Stop issuing lookups once the cap can no longer be satisfied.
		atts = atts[:remaining]
	}

	results := make([]*Candidate, len(atts))
	sem := make(chan struct{}, r.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for i, att := range atts {
		wg.Add(1)
		go func(i int, att attempt) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.verify(ctx, att, date)
		}(i, att)
	}
	wg.Wait()

	for _, c := range results {
		if c == nil {
			continue
		}
		if len(out) >= r.cfg.CandidateCap {
			break
		}
		out = append(out, *c)
	}
	return out
}

// verify runs the concrete flight lookups for one attempt. Hub connections
// require both legs to return offers; partial connections are discarded.
// Any lookup failure swallows the attempt.
func (r *Resolver) verify(ctx context.Context, att attempt, date string) *Candidate {
	if att.kind == KindHubConnection {
		first, err := r.flights.Search(ctx, att.originCode, att.hubCode, date)
		if err != nil || len(first) == 0 {
			return nil
		}
		second, err := r.flights.Search(ctx, att.hubCode, att.destinationCode, date)
		if err != nil || len(second) == 0 {
			return nil
		}
		return &Candidate{
			Kind:            att.kind,
			OriginCode:      att.originCode,
			DestinationCode: att.destinationCode,
			HubCode:         att.hubCode,
			Legs: []Leg{
				{OriginCode: att.originCode, DestinationCode: att.hubCode, Offers: first},
				{OriginCode: att.hubCode, DestinationCode: att.destinationCode, Offers: second},
			},
			Rationale: att.rationale,
		}
	}

	offers, err := r.flights.Search(ctx, att.originCode, att.destinationCode, date)
	if err != nil || len(offers) == 0 {
		return nil
	}
	return &Candidate{
		Kind:            att.kind,
		OriginCode:      att.originCode,
		DestinationCode: att.destinationCode,
		Legs:            []Leg{{OriginCode: att.originCode, DestinationCode: att.destinationCode, Offers: offers}},
		Rationale:       att.rationale,
		GroundTransport: att.ground,
	}
}

// groundTransport formats a drive estimate from a gateway airport to the
// destination, or "" when no estimator is configured or the lookup fails.
func (r *Resolver) groundTransport(ctx context.Context, gatewayCode, destination string) string {
	if r.ground == nil {
		return ""
	}
	dur, dist, err := r.ground.DriveEstimate(ctx, gatewayCode+" airport", destination)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("about %s drive (%s) from %s", dur.Round(time.Minute), dist, gatewayCode)
}

func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
