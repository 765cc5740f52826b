// README: Per-turn slot extraction combining the language model with deterministic fallbacks.
package trip

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"atlas/internal/ai"
)

// SlotExtractor turns one user utterance into a structured intent result.
// The language model does the heavy lifting; deterministic heuristics cover
// bare dates and bare city names, and keep the conversation moving when the
// model is unreachable.
type SlotExtractor struct {
	oracle ai.LLMProvider
	dates  *DateNormalizer
	log    *zap.Logger
}

func NewSlotExtractor(oracle ai.LLMProvider, dates *DateNormalizer, log *zap.Logger) *SlotExtractor {
	return &SlotExtractor{oracle: oracle, dates: dates, log: log}
}

// ExtractTurn classifies the utterance and extracts trip fields from it.
// It never returns an error for model failures: when the model is down the
// heuristic-only result is returned so the dialogue can still progress.
func (e *SlotExtractor) ExtractTurn(ctx context.Context, utterance string, trip *Context) (*ai.IntentResult, error) {
	msg := strings.TrimSpace(utterance)
	reference := time.Now().UTC()

	if trip.IsEmpty() && e.looksLikeGreeting(ctx, msg) {
		return &ai.IntentResult{Intent: ai.IntentGreeting, IsGreeting: true}, nil
	}

	// A bare date answers whichever date question is currently open.
	if LooksLikeDate(msg) {
		if field, ok := e.openDateField(trip); ok {
			if normalized, err := e.dates.Normalize(ctx, msg, reference); err == nil {
				return &ai.IntentResult{
					Intent:    ai.IntentProvideInfo,
					Extracted: map[string]string{field: normalized},
				}, nil
			}
		}
	}

	result, err := e.oracle.ParseTripIntent(ctx, msg, trip.Snapshot())
	if err != nil {
		e.log.Warn("intent parse failed, falling back to heuristics", zap.Error(err))
		result = &ai.IntentResult{Intent: ai.IntentProvideInfo, Extracted: map[string]string{}}
	}
	if result.Extracted == nil {
		result.Extracted = map[string]string{}
	}

	e.normalizeDates(ctx, result, reference)
	e.applyBareCity(ctx, msg, trip, result)

	return result, nil
}

func (e *SlotExtractor) looksLikeGreeting(ctx context.Context, msg string) bool {
	lower := strings.ToLower(msg)
	for _, g := range []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"} {
		if lower == g {
			return true
		}
	}
	if len(strings.Fields(msg)) > 4 {
		return false
	}
	yes, err := e.oracle.Classify(ctx, msg, "Is this message a greeting with no travel information in it?")
	if err != nil {
		return false
	}
	return yes
}

// openDateField reports which date slot a bare date should fill: departure
// first, then return. With both already set the utterance goes to the model.
func (e *SlotExtractor) openDateField(trip *Context) (string, bool) {
	if trip.Field(FieldDepartureDate) == "" {
		return FieldDepartureDate, true
	}
	if trip.Field(FieldReturnDate) == "" {
		return FieldReturnDate, true
	}
	return "", false
}

// normalizeDates canonicalizes any date fields the model extracted and drops
// the ones that cannot be resolved to a real date.
func (e *SlotExtractor) normalizeDates(ctx context.Context, result *ai.IntentResult, reference time.Time) {
	for _, field := range []string{FieldDepartureDate, FieldReturnDate} {
		raw, ok := result.Extracted[field]
		if !ok || raw == "" {
			continue
		}
		normalized, err := e.dates.Normalize(ctx, raw, reference)
		if err != nil {
			e.log.Warn("dropping unparseable date", zap.String("field", field), zap.String("raw", raw))
			delete(result.Extracted, field)
			continue
		}
		result.Extracted[field] = normalized
	}
}

// applyBareCity handles one- or two-word replies like "Tokyo" that the model
// often misses when they arrive without surrounding context. The slot choice
// follows the conversation: a known destination means the city is the origin.
func (e *SlotExtractor) applyBareCity(ctx context.Context, msg string, trip *Context, result *ai.IntentResult) {
	if len(strings.Fields(msg)) > 2 || LooksLikeDate(msg) {
		return
	}
	if result.Extracted[FieldDestination] != "" || result.Extracted[FieldOrigin] != "" {
		return
	}

	var field string
	switch {
	case trip.Field(FieldDestination) != "" && trip.Field(FieldOrigin) == "":
		field = FieldOrigin
	case trip.Field(FieldDestination) == "":
		field = FieldDestination
	default:
		return
	}

	yes, err := e.oracle.Classify(ctx, msg, "Is this the name of a city, region, or travel destination?")
	if err != nil || !yes {
		return
	}
	result.Intent = ai.IntentProvideInfo
	result.Extracted[field] = msg
}
