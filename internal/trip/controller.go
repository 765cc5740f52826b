// README: Dialogue controller driving a trip conversation from gathering to an assembled plan.
package trip

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"atlas/internal/ai"
	"atlas/internal/flights"
	"atlas/internal/hotels"
	"atlas/internal/plan"
	"atlas/internal/routes"
	"atlas/internal/weather"
)

// Stage is the dialogue stage of a session.
type Stage string

const (
	StageGathering        Stage = "GATHERING"
	StageReadyForLookup   Stage = "READY_FOR_LOOKUP"
	StageAssemblingPlan   Stage = "ASSEMBLING_PLAN"
	StageAwaitingRevision Stage = "AWAITING_REVISION"
)

// allowedStages defines the legal dialogue progression. Any stage may fall
// back to GATHERING when the user resets or revises.
var allowedStages = map[Stage][]Stage{
	StageGathering:        {StageReadyForLookup, StageGathering},
	StageReadyForLookup:   {StageAssemblingPlan, StageGathering},
	StageAssemblingPlan:   {StageAwaitingRevision, StageGathering},
	StageAwaitingRevision: {StageGathering, StageAwaitingRevision},
}

// CanTransition reports whether moving from one stage to another is legal.
func CanTransition(from, to Stage) bool {
	for _, next := range allowedStages[from] {
		if next == to {
			return true
		}
	}
	return false
}

// State is the full persisted conversation state for one session.
type State struct {
	Trip  Context `json:"trip"`
	Stage Stage   `json:"stage"`
}

func NewState() *State {
	return &State{Stage: StageGathering}
}

// FlightSearcher finds flight offers between two airport codes.
type FlightSearcher interface {
	Search(ctx context.Context, originCode, destinationCode, date string) ([]flights.Offer, error)
	ResolveCity(ctx context.Context, name string) string
}

// HotelSearcher finds hotel offers in a city for a stay window.
type HotelSearcher interface {
	Search(ctx context.Context, city, checkIn, checkOut string) ([]hotels.Offer, error)
}

// WeatherService forecasts conditions for a location on a date.
type WeatherService interface {
	Forecast(ctx context.Context, location, date string) (*weather.Summary, error)
}

// AlternativeFinder resolves alternative routes when direct search is empty.
type AlternativeFinder interface {
	FindAlternatives(ctx context.Context, originCity, destinationCity, date string) []routes.Candidate
}

var resetPhrases = []string{
	"new trip", "start over", "reset", "clear", "plan another trip", "different trip",
}

const resetReply = "Okay, let's start fresh! Where would you like to go?"

const openingPrompt = "Hi! I'm your travel planning assistant. Where would you like to go?"

var slotPrompts = map[string]string{
	FieldDestination:   "Where would you like to go?",
	FieldDuration:      "How many days will your trip be?",
	FieldDepartureDate: "When would you like to depart?",
	FieldOrigin:        "Which city will you be departing from?",
	FieldInterests:     "What are you interested in doing there?",
}

// Controller runs one dialogue turn: classify, extract, merge, and either
// ask the next question or assemble the plan.
type Controller struct {
	extractor *SlotExtractor
	oracle    ai.LLMProvider
	flights   FlightSearcher
	hotels    HotelSearcher
	weather   WeatherService
	alts      AlternativeFinder
	assembler *plan.Assembler
	required  []string
	log       *zap.Logger
	now       func() time.Time
}

func NewController(
	extractor *SlotExtractor,
	oracle ai.LLMProvider,
	fs FlightSearcher,
	hs HotelSearcher,
	ws WeatherService,
	alts AlternativeFinder,
	required []string,
	log *zap.Logger,
) *Controller {
	if len(required) == 0 {
		required = RequiredSlots
	}
	return &Controller{
		extractor: extractor,
		oracle:    oracle,
		flights:   fs,
		hotels:    hs,
		weather:   ws,
		alts:      alts,
		assembler: plan.NewAssembler(),
		required:  required,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// advance moves the session to the next stage, refusing jumps the
// allowedStages table does not permit. An illegal jump means the stored
// stage is stale or unknown, so the session restarts from GATHERING and
// the move is retried from there.
func (c *Controller) advance(state *State, to Stage) {
	if !CanTransition(state.Stage, to) {
		c.log.Warn("illegal stage transition",
			zap.String("from", string(state.Stage)), zap.String("to", string(to)))
		state.Stage = StageGathering
		if !CanTransition(state.Stage, to) {
			return
		}
	}
	state.Stage = to
}

// HandleTurn advances the dialogue by one user utterance. It mutates state
// in place and always returns a reply; provider failures surface as notices
// inside a partial plan, never as a silent turn.
func (c *Controller) HandleTurn(ctx context.Context, state *State, utterance string) (*plan.TurnReply, error) {
	msg := strings.TrimSpace(utterance)
	if msg == "" {
		return plan.Question(c.nextQuestion(state, nil)), nil
	}

	if c.isResetPhrase(msg) {
		state.Trip.Reset()
		c.advance(state, StageGathering)
		return plan.Notice(resetReply), nil
	}

	if state.Stage == StageAwaitingRevision {
		return c.handleRevision(ctx, state, msg)
	}

	result, err := c.extractor.ExtractTurn(ctx, msg, &state.Trip)
	if err != nil {
		return nil, err
	}

	if result.IsReset {
		state.Trip.Reset()
		c.advance(state, StageGathering)
		return plan.Notice(resetReply), nil
	}
	if result.IsGreeting && state.Trip.IsEmpty() {
		return plan.Question(openingPrompt), nil
	}

	state.Trip.Merge(Update(result.Extracted))

	missing := state.Trip.Missing(c.required)
	if len(missing) > 0 {
		c.advance(state, StageGathering)
		return plan.Question(c.nextQuestion(state, result)), nil
	}

	c.advance(state, StageReadyForLookup)
	return c.assemblePlan(ctx, state)
}

// handleRevision probes whether a post-plan message is a change request.
func (c *Controller) handleRevision(ctx context.Context, state *State, msg string) (*plan.TurnReply, error) {
	wantsChange, err := c.oracle.Classify(ctx, msg,
		"Does the user want to modify or change something about their travel plan?")
	if err != nil {
		c.log.Warn("revision classify failed", zap.Error(err))
		wantsChange = true
	}
	if wantsChange {
		c.advance(state, StageGathering)
		result, err := c.extractor.ExtractTurn(ctx, msg, &state.Trip)
		if err == nil && len(result.Extracted) > 0 {
			state.Trip.Merge(Update(result.Extracted))
			if len(state.Trip.Missing(c.required)) == 0 {
				c.advance(state, StageReadyForLookup)
				return c.assemblePlan(ctx, state)
			}
		}
		return plan.Question("What would you like to change about your trip?"), nil
	}
	return plan.Notice("Great! Would you like me to help you book any of these options? You can also say \"new trip\" to plan another one."), nil
}

// nextQuestion picks the follow-up for the first missing slot, preferring
// the model's own phrasing when it supplied one.
func (c *Controller) nextQuestion(state *State, result *ai.IntentResult) string {
	if result != nil && result.NextQuestion != "" {
		return result.NextQuestion
	}
	missing := state.Trip.Missing(c.required)
	if len(missing) == 0 {
		return openingPrompt
	}
	if q, ok := slotPrompts[missing[0]]; ok {
		return q
	}
	return fmt.Sprintf("Could you tell me your %s?", strings.ReplaceAll(missing[0], "_", " "))
}

// assemblePlan fans out to all providers concurrently and composes whatever
// came back. Each provider failure becomes a notice on the payload.
func (c *Controller) assemblePlan(ctx context.Context, state *State) (*plan.TurnReply, error) {
	c.advance(state, StageAssemblingPlan)
	trip := &state.Trip
	reference := c.now()

	depDate := ClampProviderDate(trip.Field(FieldDepartureDate), reference)
	retDate := ClampProviderDate(trip.Field(FieldReturnDate), reference)

	originCode := c.flights.ResolveCity(ctx, trip.Field(FieldOrigin))
	destCode := c.flights.ResolveCity(ctx, trip.Field(FieldDestination))

	payload := &plan.Payload{
		Destination:   trip.Field(FieldDestination),
		Origin:        trip.Field(FieldOrigin),
		DepartureDate: depDate,
		ReturnDate:    retDate,
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	notice := func(msg string) {
		mu.Lock()
		payload.Notices = append(payload.Notices, msg)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		offers, err := c.flights.Search(ctx, originCode, destCode, depDate)
		if err != nil {
			c.log.Warn("flight search failed", zap.Error(err))
			notice("Could not fetch flight options right now.")
			return
		}
		mu.Lock()
		payload.Flights = offers
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stays, err := c.hotels.Search(ctx, trip.Field(FieldDestination), depDate, retDate)
		if err != nil {
			c.log.Warn("hotel search failed", zap.Error(err))
			mu.Lock()
			payload.HotelsFailed = true
			mu.Unlock()
			notice("Could not fetch hotel options right now.")
			return
		}
		mu.Lock()
		payload.Hotels = stays
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, err := c.weather.Forecast(ctx, trip.Field(FieldDestination), depDate)
		if err != nil {
			c.log.Warn("departure weather failed", zap.Error(err))
			notice("Could not fetch the weather forecast for your arrival.")
			return
		}
		mu.Lock()
		payload.DepartureWeather = summary
		mu.Unlock()
	}()

	if retDate != "" && retDate != depDate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := c.weather.Forecast(ctx, trip.Field(FieldDestination), retDate)
			if err != nil {
				c.log.Warn("return weather failed", zap.Error(err))
				return
			}
			mu.Lock()
			payload.ReturnWeather = summary
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		itinerary, err := c.oracle.ComposeItinerary(ctx,
			trip.Field(FieldDestination), trip.Field(FieldDuration), trip.Field(FieldInterests))
		if err != nil {
			c.log.Warn("itinerary generation failed", zap.Error(err))
			notice("Could not generate a day-by-day itinerary right now.")
			return
		}
		mu.Lock()
		payload.Itinerary = itinerary
		mu.Unlock()
	}()

	wg.Wait()

	if len(payload.Flights) == 0 && c.alts != nil {
		payload.Alternatives = c.alts.FindAlternatives(ctx,
			trip.Field(FieldOrigin), trip.Field(FieldDestination), depDate)
	}

	c.advance(state, StageAwaitingRevision)
	return c.assembler.Compose(payload), nil
}

func (c *Controller) isResetPhrase(msg string) bool {
	lower := strings.ToLower(strings.TrimSpace(msg))
	for _, p := range resetPhrases {
		if lower == p {
			return true
		}
	}
	return false
}
