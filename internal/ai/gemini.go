package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements LLMProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client

	// jsonModel forces JSON output for structured parsing.
	jsonModel *genai.GenerativeModel
	// textModel is used for free-text generation (itineraries, yes/no probes,
	// date normalization) where a JSON MIME type would get in the way.
	textModel *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	jsonModel := client.GenerativeModel("gemini-2.0-flash")
	jsonModel.ResponseMIMEType = "application/json"
	jsonModel.SetTemperature(0.4)

	textModel := client.GenerativeModel("gemini-2.0-flash")
	textModel.SetTemperature(0.7)

	return &GeminiProvider{
		client:    client,
		jsonModel: jsonModel,
		textModel: textModel,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

var _ LLMProvider = (*GeminiProvider)(nil)

// ParseTripIntent analyzes user input to extract travel-planning intent.
func (p *GeminiProvider) ParseTripIntent(ctx context.Context, utterance string, tripContext map[string]string) (*IntentResult, error) {
	prompt := buildIntentPrompt(utterance, tripContext)

	raw, err := p.generate(ctx, p.jsonModel, prompt)
	if err != nil {
		return nil, err
	}
	return parseIntentResult(raw)
}

// Classify answers a yes/no probe about the utterance.
func (p *GeminiProvider) Classify(ctx context.Context, utterance string, question string) (bool, error) {
	prompt := fmt.Sprintf(
		"%s Return 'yes' if it is, 'no' if it's not. Return ONLY yes or no, nothing else.\nText to check: %s",
		question, utterance)

	raw, err := p.generate(ctx, p.textModel, prompt)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(raw), "yes"), nil
}

// NormalizeDate asks the oracle to convert a date expression to YYYY-MM-DD.
func (p *GeminiProvider) NormalizeDate(ctx context.Context, raw string, reference time.Time) (string, error) {
	prompt := fmt.Sprintf(
		"Convert this date to YYYY-MM-DD format. "+
			"Today's date is %s; if the year is not specified, pick the next future occurrence. "+
			"If the date is ambiguous or invalid, return 'invalid'. "+
			"For seasons like 'summer', use the start of that season. "+
			"Handle abbreviated months (e.g., 'aug' for August) and formats like '28 aug', 'aug 28', '28th august'. "+
			"Return ONLY the date in YYYY-MM-DD format or the word invalid, nothing else. "+
			"Date to normalize: %s",
		reference.Format("2006-01-02"), raw)

	reply, err := p.generate(ctx, p.textModel, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(cleanJSONString(reply)), nil
}

// SuggestRoutes asks the oracle for alternative itineraries.
func (p *GeminiProvider) SuggestRoutes(ctx context.Context, query RouteQuery) ([]RouteSuggestion, error) {
	var sb strings.Builder
	sb.WriteString("A direct flight search returned no results. Suggest alternative routes as a JSON array.\n")
	fmt.Fprintf(&sb, "Origin airport: %s\nDestination airport: %s\nTravel date: %s\n", query.OriginCode, query.DestinationCode, query.Date)
	if query.SpecialDestination != "" {
		fmt.Fprintf(&sb, "The destination %q is a special destination without its own airport; known gateway airports: %s.\n",
			query.SpecialDestination, strings.Join(query.GatewayAirports, ", "))
	}
	sb.WriteString(`Each array element must be an object:
{
  "kind": "nearby_origin" | "nearby_dest" | "hub_connection" | "oracle_suggested",
  "origin_code": "3-letter IATA code",
  "destination_code": "3-letter IATA code",
  "hub_code": "3-letter IATA code, only for hub_connection",
  "rationale": "one short sentence explaining why this route is plausible"
}
Suggest at most 4 routes. Use real IATA codes only. Return ONLY the JSON array, no other text.`)

	raw, err := p.generate(ctx, p.jsonModel, sb.String())
	if err != nil {
		return nil, err
	}

	var suggestions []RouteSuggestion
	if err := json.Unmarshal([]byte(cleanJSONString(raw)), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: route suggestions: %v", ErrMalformed, err)
	}
	return suggestions, nil
}

// ComposeItinerary generates a day-by-day itinerary for the destination.
func (p *GeminiProvider) ComposeItinerary(ctx context.Context, destination, duration, interests string) (string, error) {
	prompt := fmt.Sprintf(
		"Create a detailed %s-day itinerary for %s. "+
			"Break it down day by day, starting each day with 'Day X:' (e.g., 'Day 1:'). "+
			"List morning, afternoon, and evening activities for each day. "+
			"Consider these interests: %s. "+
			"Include major attractions, local experiences, and dining recommendations. "+
			"Format as plain text with clear sections and bullet points; do NOT use HTML tags. "+
			"Return only the formatted text, no explanations.",
		duration, destination, interests)

	return p.generate(ctx, p.textModel, prompt)
}

// generate runs one completion and returns the concatenated text parts.
func (p *GeminiProvider) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no response candidates", ErrMalformed)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return out.String(), nil
}

// buildIntentPrompt constructs the instruction for intent parsing, injecting
// the current trip context for conversational continuity.
func buildIntentPrompt(utterance string, tripContext map[string]string) string {
	ctxJSON, _ := json.MarshalIndent(tripContext, "", "  ")

	return fmt.Sprintf(`You are a travel planning assistant. Analyze this user message and return a JSON object with the following structure. Return ONLY the JSON object, no other text or explanation.
{
  "intent": "greeting" | "reset" | "provide_info" | "question" | "continue",
  "is_greeting": boolean,
  "is_reset": boolean,
  "extracted_info": {
    "origin": string,
    "destination": string,
    "departure_date": string,
    "return_date": string,
    "duration": string,
    "budget": string,
    "interests": string,
    "accommodation": string
  },
  "missing_info": ["string"],
  "next_question": "string"
}

Rules:
1. Only include extracted_info fields that are explicitly mentioned or can be reasonably inferred; omit the rest entirely. Never emit empty strings or nulls.
2. For dates, understand natural language expressions like 'next week', 'in 2 months', 'end of summer', and formats like '28 aug', 'aug 28', '28th august'. Convert all dates to YYYY-MM-DD.
3. For budget, extract the numerical value. For duration, extract only the number.
4. Intent detection:
   - 'greeting': hello, hi, hey, etc.
   - 'reset': new trip, start over, reset, clear, etc.
   - 'provide_info': when the user provides any trip details
   - 'question': when the user asks about the trip
   - 'continue': when the user wants to proceed with planning
5. If the message is just 'correct' or a similar acknowledgment, leave extracted_info empty.
6. If the message is a single word or short phrase that could be a city name, and the context already has a destination but no origin, treat it as the origin city.
7. For missing_info, list only the required fields that are still missing.
8. For next_question, provide a natural follow-up question.

Current trip context: %s

User message: %s`, string(ctxJSON), utterance)
}

// parseIntentResult decodes the oracle's structured reply, defensively
// stripping conversational wrappers first.
func parseIntentResult(raw string) (*IntentResult, error) {
	clean := cleanJSONString(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformed)
	}

	var result IntentResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, fmt.Errorf("%w: %v (raw: %s)", ErrMalformed, err, clean)
	}
	if result.Intent == "" {
		return nil, fmt.Errorf("%w: missing intent field", ErrMalformed)
	}

	// Drop empty extracted values so merge logic only ever sees real data.
	for k, v := range result.Extracted {
		if strings.TrimSpace(v) == "" {
			delete(result.Extracted, k)
		}
	}
	return &result, nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
