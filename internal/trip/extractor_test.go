package trip

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"atlas/internal/ai"
)

// oracleStub is a scriptable LLMProvider for tests. Unset funcs return
// neutral defaults so each test only scripts what it cares about.
type oracleStub struct {
	parse     func(utterance string, tripContext map[string]string) (*ai.IntentResult, error)
	classify  func(utterance, question string) (bool, error)
	normalize func(raw string, reference time.Time) (string, error)
	suggest   func(query ai.RouteQuery) ([]ai.RouteSuggestion, error)
	itinerary func(destination, duration, interests string) (string, error)
}

func (s *oracleStub) ParseTripIntent(_ context.Context, utterance string, tripContext map[string]string) (*ai.IntentResult, error) {
	if s.parse != nil {
		return s.parse(utterance, tripContext)
	}
	return &ai.IntentResult{Intent: ai.IntentProvideInfo, Extracted: map[string]string{}}, nil
}

func (s *oracleStub) Classify(_ context.Context, utterance, question string) (bool, error) {
	if s.classify != nil {
		return s.classify(utterance, question)
	}
	return false, nil
}

func (s *oracleStub) NormalizeDate(_ context.Context, raw string, reference time.Time) (string, error) {
	if s.normalize != nil {
		return s.normalize(raw, reference)
	}
	return "invalid", nil
}

func (s *oracleStub) SuggestRoutes(_ context.Context, query ai.RouteQuery) ([]ai.RouteSuggestion, error) {
	if s.suggest != nil {
		return s.suggest(query)
	}
	return nil, nil
}

func (s *oracleStub) ComposeItinerary(_ context.Context, destination, duration, interests string) (string, error) {
	if s.itinerary != nil {
		return s.itinerary(destination, duration, interests)
	}
	return "Day 1: explore " + destination, nil
}

func newTestExtractor(oracle *oracleStub) *SlotExtractor {
	return NewSlotExtractor(oracle, NewDateNormalizer(oracle), zap.NewNop())
}

func TestExtractTurn_LiteralGreeting(t *testing.T) {
	e := newTestExtractor(&oracleStub{})
	trip := &Context{}

	result, err := e.ExtractTurn(context.Background(), "hello", trip)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsGreeting {
		t.Errorf("expected greeting, got intent %q", result.Intent)
	}
}

func TestExtractTurn_GreetingSkippedWithContext(t *testing.T) {
	classified := false
	oracle := &oracleStub{
		classify: func(_, question string) (bool, error) {
			if strings.Contains(question, "greeting") {
				classified = true
				return true, nil
			}
			return false, nil
		},
	}
	e := newTestExtractor(oracle)
	trip := &Context{Destination: "Rome"}

	result, err := e.ExtractTurn(context.Background(), "hello again", trip)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsGreeting {
		t.Error("greeting must not short-circuit once the trip has data")
	}
	if classified {
		t.Error("greeting probe should be skipped when context is non-empty")
	}
}

func TestExtractTurn_BareDateFillsOpenSlot(t *testing.T) {
	e := newTestExtractor(&oracleStub{})

	tests := []struct {
		name      string
		trip      *Context
		utterance string
		wantField string
	}{
		{"departure first", &Context{Destination: "Rome"}, "2027-09-10", FieldDepartureDate},
		{"then return", &Context{Destination: "Rome", DepartureDate: "2027-09-10"}, "2027-09-20", FieldReturnDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.ExtractTurn(context.Background(), tt.utterance, tt.trip)
			if err != nil {
				t.Fatal(err)
			}
			if got := result.Extracted[tt.wantField]; got != tt.utterance {
				t.Errorf("Extracted[%s] = %q, want %q", tt.wantField, got, tt.utterance)
			}
		})
	}
}

func TestExtractTurn_BareDateBothSetGoesToOracle(t *testing.T) {
	parsed := false
	oracle := &oracleStub{
		parse: func(_ string, _ map[string]string) (*ai.IntentResult, error) {
			parsed = true
			return &ai.IntentResult{Intent: ai.IntentProvideInfo, Extracted: map[string]string{}}, nil
		},
	}
	e := newTestExtractor(oracle)
	trip := &Context{Destination: "Rome", DepartureDate: "2027-09-10", ReturnDate: "2027-09-20"}

	if _, err := e.ExtractTurn(context.Background(), "2027-10-01", trip); err != nil {
		t.Fatal(err)
	}
	if !parsed {
		t.Error("with both date slots filled the utterance should reach the model")
	}
}

func TestExtractTurn_BareCityRouting(t *testing.T) {
	cityYes := func(_, question string) (bool, error) {
		if strings.Contains(question, "greeting") {
			return false, nil
		}
		return true, nil
	}

	tests := []struct {
		name      string
		trip      *Context
		utterance string
		wantField string
	}{
		{"destination when empty", &Context{Duration: "5"}, "Tokyo", FieldDestination},
		{"origin once destination known", &Context{Destination: "Tokyo"}, "Paris", FieldOrigin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(&oracleStub{classify: cityYes})
			result, err := e.ExtractTurn(context.Background(), tt.utterance, tt.trip)
			if err != nil {
				t.Fatal(err)
			}
			if got := result.Extracted[tt.wantField]; got != tt.utterance {
				t.Errorf("Extracted[%s] = %q, want %q (got %v)", tt.wantField, got, tt.utterance, result.Extracted)
			}
		})
	}
}

func TestExtractTurn_BareCityDroppedWhenBothSet(t *testing.T) {
	e := newTestExtractor(&oracleStub{
		classify: func(_, _ string) (bool, error) { return true, nil },
	})
	trip := &Context{Destination: "Tokyo", Origin: "Paris"}

	result, err := e.ExtractTurn(context.Background(), "Berlin", trip)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Extracted) != 0 {
		t.Errorf("no slot is open for a bare city, got %v", result.Extracted)
	}
}

func TestExtractTurn_OracleFailureFallsBackToHeuristics(t *testing.T) {
	oracle := &oracleStub{
		parse: func(_ string, _ map[string]string) (*ai.IntentResult, error) {
			return nil, ai.ErrUnavailable
		},
		classify: func(_, question string) (bool, error) {
			if strings.Contains(question, "greeting") {
				return false, nil
			}
			return true, nil
		},
	}
	e := newTestExtractor(oracle)
	trip := &Context{Destination: "Rome"}

	result, err := e.ExtractTurn(context.Background(), "Boston", trip)
	if err != nil {
		t.Fatalf("model failure must not surface: %v", err)
	}
	if got := result.Extracted[FieldOrigin]; got != "Boston" {
		t.Errorf("heuristic extraction should still run, got %v", result.Extracted)
	}
}

func TestExtractTurn_NormalizesExtractedDates(t *testing.T) {
	oracle := &oracleStub{
		parse: func(_ string, _ map[string]string) (*ai.IntentResult, error) {
			return &ai.IntentResult{
				Intent: ai.IntentProvideInfo,
				Extracted: map[string]string{
					FieldDestination:   "Rome",
					FieldDepartureDate: "tomorrow",
				},
			}, nil
		},
	}
	e := newTestExtractor(oracle)

	result, err := e.ExtractTurn(context.Background(), "Rome, leaving tomorrow", &Context{})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Now().UTC().AddDate(0, 0, 1).Format(DateLayout)
	if got := result.Extracted[FieldDepartureDate]; got != want {
		t.Errorf("departure_date = %q, want %q", got, want)
	}
}

func TestExtractTurn_DropsUnresolvableDates(t *testing.T) {
	oracle := &oracleStub{
		parse: func(_ string, _ map[string]string) (*ai.IntentResult, error) {
			return &ai.IntentResult{
				Intent:    ai.IntentProvideInfo,
				Extracted: map[string]string{FieldDepartureDate: "whenever works"},
			}, nil
		},
		normalize: func(_ string, _ time.Time) (string, error) {
			return "invalid", nil
		},
	}
	e := newTestExtractor(oracle)

	result, err := e.ExtractTurn(context.Background(), "whenever works", &Context{Destination: "Rome"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Extracted[FieldDepartureDate]; ok {
		t.Error("unresolvable date must be dropped, not stored")
	}
}

func TestExtractTurn_GreetingProbeErrorIsNotGreeting(t *testing.T) {
	oracle := &oracleStub{
		classify: func(_, _ string) (bool, error) {
			return false, errors.New("unreachable")
		},
	}
	e := newTestExtractor(oracle)

	result, err := e.ExtractTurn(context.Background(), "howdy there", &Context{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsGreeting {
		t.Error("probe failure must not classify as greeting")
	}
}
