package ai

import (
	"context"
	"time"
)

// LLMProvider defines the contract for the natural-language oracle.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.)
// and for substituting stubs in tests.
type LLMProvider interface {
	// ParseTripIntent analyzes the user's utterance against the current trip
	// context and extracts structured intent. tripContext carries the current
	// slot values keyed by field name so the oracle keeps conversational
	// continuity. The provider never mutates the caller's state; it only
	// returns candidate data.
	ParseTripIntent(ctx context.Context, utterance string, tripContext map[string]string) (*IntentResult, error)

	// Classify answers a yes/no probe about the utterance, e.g.
	// "is this a greeting?" or "could this be a valid city name?".
	Classify(ctx context.Context, utterance string, question string) (bool, error)

	// NormalizeDate asks the oracle to convert an arbitrary date expression
	// to YYYY-MM-DD, resolving missing years against the reference date.
	// The returned string is either a date in that layout or the literal
	// token "invalid"; callers must validate before use.
	NormalizeDate(ctx context.Context, raw string, reference time.Time) (string, error)

	// SuggestRoutes asks the oracle for alternative itineraries when a
	// direct flight search came back empty.
	SuggestRoutes(ctx context.Context, query RouteQuery) ([]RouteSuggestion, error)

	// ComposeItinerary generates a day-by-day itinerary text for the trip.
	ComposeItinerary(ctx context.Context, destination, duration, interests string) (string, error)
}
