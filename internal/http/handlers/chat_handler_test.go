// README: Integration tests for the chat handler over a stubbed planner stack.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atlas/internal/ai"
	"atlas/internal/flights"
	"atlas/internal/hotels"
	"atlas/internal/http/handlers"
	"atlas/internal/modules/conversation"
	"atlas/internal/service"
	"atlas/internal/trip"
	"atlas/internal/weather"
)

// stubOracle is a fixed-answer LLMProvider for handler tests.
type stubOracle struct{}

func (stubOracle) ParseTripIntent(_ context.Context, _ string, _ map[string]string) (*ai.IntentResult, error) {
	return &ai.IntentResult{
		Intent:    ai.IntentProvideInfo,
		Extracted: map[string]string{"destination": "Rome"},
	}, nil
}

func (stubOracle) Classify(_ context.Context, _, _ string) (bool, error) { return false, nil }

func (stubOracle) NormalizeDate(_ context.Context, _ string, _ time.Time) (string, error) {
	return "invalid", nil
}

func (stubOracle) SuggestRoutes(_ context.Context, _ ai.RouteQuery) ([]ai.RouteSuggestion, error) {
	return nil, nil
}

func (stubOracle) ComposeItinerary(_ context.Context, destination, _, _ string) (string, error) {
	return "Day 1: explore " + destination, nil
}

type stubFlights struct{}

func (stubFlights) Search(_ context.Context, _, _, _ string) ([]flights.Offer, error) {
	return nil, nil
}
func (stubFlights) ResolveCity(_ context.Context, name string) string { return "XXX" }

type stubHotels struct{}

func (stubHotels) Search(_ context.Context, _, _, _ string) ([]hotels.Offer, error) {
	return nil, nil
}

type stubWeather struct{}

func (stubWeather) Forecast(_ context.Context, location, date string) (*weather.Summary, error) {
	return &weather.Summary{Location: location, Date: date, Description: "Clear"}, nil
}

func buildTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	oracle := stubOracle{}
	extractor := trip.NewSlotExtractor(oracle, trip.NewDateNormalizer(oracle), log)
	controller := trip.NewController(extractor, oracle, stubFlights{}, stubHotels{}, stubWeather{}, nil, nil, log)

	store := conversation.NewStore(conversation.NewMemoryBackend(), nil)
	planner := service.NewPlanner(controller, conversation.NewService(store), log)

	h := handlers.NewChatHandler(planner)
	r := gin.New()
	r.POST("/api/chat", h.Chat)
	r.POST("/api/sessions/:id/reset", h.Reset)
	r.GET("/api/sessions/:id/history", h.History)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_AllocatesSession(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(r, http.MethodPost, "/api/chat", map[string]string{"message": "I want to go to Rome"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Kind      string `json:"kind"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" {
		t.Error("session_id not allocated")
	}
	if resp.Kind != "question" || resp.Message == "" {
		t.Errorf("reply = %+v", resp)
	}
}

func TestChat_ReusesSession(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(r, http.MethodPost, "/api/chat", map[string]string{"message": "I want to go to Rome"})
	var first struct {
		SessionID string `json:"session_id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &first)

	w = doRequest(r, http.MethodPost, "/api/chat", map[string]string{
		"session_id": first.SessionID,
		"message":    "and more details",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var second struct {
		SessionID string `json:"session_id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if second.SessionID != first.SessionID {
		t.Errorf("session changed: %s vs %s", first.SessionID, second.SessionID)
	}
}

func TestChat_BadRequests(t *testing.T) {
	r := buildTestRouter()

	tests := []struct {
		name string
		body any
	}{
		{"missing message", map[string]string{"session_id": "abc"}},
		{"blank message", map[string]string{"message": "   "}},
		{"invalid session id", map[string]string{"session_id": "not/valid!", "message": "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doRequest(r, http.MethodPost, "/api/chat", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d", w.Code)
			}
		})
	}
}

func TestReset(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(r, http.MethodPost, "/api/chat", map[string]string{"message": "I want to go to Rome"})
	var resp struct {
		SessionID string `json:"session_id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	if w := doRequest(r, http.MethodPost, "/api/sessions/"+resp.SessionID+"/reset", nil); w.Code != http.StatusOK {
		t.Errorf("reset status = %d", w.Code)
	}
}

func TestHistory_EmptyWithoutDatabase(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(r, http.MethodGet, "/api/sessions/some-session/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
