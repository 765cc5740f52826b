package hotels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, lookupJSON, cacheJSON string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "" {
			t.Error("token missing from request")
		}
		switch r.URL.Path {
		case "/lookup.json":
			w.Write([]byte(lookupJSON))
		case "/cache.json":
			w.Write([]byte(cacheJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-token", zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func TestSearch(t *testing.T) {
	lookup := `{"results":{"locations":[{"id":12209}]}}`
	cache := `[
		{"hotelId":101, "hotelName":"Hotel Roma", "stars":4, "priceFrom":120.5, "currency":"USD"},
		{"hotelId":102, "hotelName":"  ", "stars":3, "priceFrom":90},
		{"hotelId":103, "hotelName":"Pensione Verdi", "stars":2, "priceFrom":55}
	]`
	c := newTestClient(t, lookup, cache)

	offers, err := c.Search(context.Background(), "Rome", "2027-09-10", "2027-09-15")
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, blank names must be skipped", len(offers))
	}
	o := offers[0]
	if o.Name != "Hotel Roma" || o.Stars != 4 || o.PriceFrom != 120.5 {
		t.Errorf("offer = %+v", o)
	}
	if o.BookingLink != "https://www.hotellook.com/hotels/101" {
		t.Errorf("link = %q", o.BookingLink)
	}
	// Missing currency defaults to USD.
	if offers[1].Currency != "USD" {
		t.Errorf("currency = %q", offers[1].Currency)
	}
}

func TestSearch_UnknownCity(t *testing.T) {
	c := newTestClient(t, `{"results":{"locations":[]}}`, `[]`)

	offers, err := c.Search(context.Background(), "Atlantis", "2027-09-10", "2027-09-15")
	if err != nil {
		t.Fatalf("unknown city must not error: %v", err)
	}
	if offers != nil {
		t.Errorf("offers = %+v", offers)
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	c := NewClient("", zap.NewNop())
	if _, err := c.Search(context.Background(), "Rome", "2027-09-10", "2027-09-15"); err == nil {
		t.Fatal("expected error without a token")
	}
}
