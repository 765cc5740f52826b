package ai

import "errors"

// Oracle failure taxonomy. Both are recoverable: callers degrade to
// heuristics instead of surfacing these to the user.
var (
	// ErrUnavailable indicates a transport or quota failure reaching the oracle.
	ErrUnavailable = errors.New("oracle unavailable")

	// ErrMalformed indicates the oracle replied but the reply could not be
	// parsed into the expected structure.
	ErrMalformed = errors.New("oracle reply malformed")
)

// Intent values returned by ParseTripIntent.
const (
	IntentGreeting    = "greeting"
	IntentReset       = "reset"
	IntentProvideInfo = "provide_info"
	IntentQuestion    = "question"
	IntentContinue    = "continue"
)

// IntentResult captures the structured output from the oracle for one turn.
type IntentResult struct {
	// Intent describes the user's primary goal for this turn.
	Intent string `json:"intent"`

	IsGreeting bool `json:"is_greeting"`
	IsReset    bool `json:"is_reset"`

	// Extracted maps trip field names to candidate values. Fields the
	// utterance did not mention are absent, never empty strings.
	Extracted map[string]string `json:"extracted_info"`

	// Missing lists required fields still absent, in priority order.
	Missing []string `json:"missing_info"`

	// NextQuestion is the oracle's suggested follow-up question.
	NextQuestion string `json:"next_question"`
}

// RouteQuery carries the inputs for an alternative-route consultation.
type RouteQuery struct {
	OriginCode      string
	DestinationCode string
	Date            string

	// SpecialDestination names a curated destination (e.g. a national park)
	// when the destination has no airport of its own.
	SpecialDestination string
	// GatewayAirports are the curated nearby airport codes for
	// SpecialDestination, if any.
	GatewayAirports []string
}

// RouteSuggestion is one oracle-proposed alternative itinerary.
type RouteSuggestion struct {
	// Kind is one of "nearby_origin", "nearby_dest", "hub_connection",
	// "oracle_suggested".
	Kind            string `json:"kind"`
	OriginCode      string `json:"origin_code"`
	DestinationCode string `json:"destination_code"`
	// HubCode is set only for hub_connection suggestions.
	HubCode   string `json:"hub_code,omitempty"`
	Rationale string `json:"rationale"`
}
