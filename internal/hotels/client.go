// README: Hotellook API client: location lookup then cached price search.
package hotels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Offer is a simplified hotel offer for presentation.
type Offer struct {
	Name        string  `json:"name"`
	Stars       int     `json:"stars"`
	PriceFrom   float64 `json:"price_from"`
	Currency    string  `json:"currency"`
	BookingLink string  `json:"booking_link,omitempty"`
}

// Client talks to the hotellook engine API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(token string, log *zap.Logger) *Client {
	return &Client{
		token:      token,
		baseURL:    "https://engine.hotellook.com/api/v2",
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        log,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hotellook error (%d): %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

// lookupLocation resolves a city name to a hotellook location ID.
// Returns 0 with a nil error when the city is simply unknown.
func (c *Client) lookupLocation(ctx context.Context, city string) (int64, error) {
	params := url.Values{}
	params.Set("query", city)
	params.Set("lang", "en")
	params.Set("lookFor", "both")
	params.Set("limit", "1")

	var result struct {
		Results struct {
			Locations []struct {
				ID json.Number `json:"id"`
			} `json:"locations"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, "/lookup.json", params, &result); err != nil {
		return 0, err
	}
	if len(result.Results.Locations) == 0 {
		return 0, nil
	}
	id, err := result.Results.Locations[0].ID.Int64()
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// Search returns hotel offers for a city and stay window. An unknown city or
// an empty price cache yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, city, checkIn, checkOut string) ([]Offer, error) {
	if c.token == "" {
		return nil, fmt.Errorf("hotellook not configured")
	}

	locationID, err := c.lookupLocation(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("hotel location lookup: %w", err)
	}
	if locationID == 0 {
		c.log.Info("no hotel location found", zap.String("city", city))
		return nil, nil
	}

	params := url.Values{}
	params.Set("locationId", fmt.Sprintf("%d", locationID))
	params.Set("checkIn", checkIn)
	params.Set("checkOut", checkOut)
	params.Set("adults", "2")
	params.Set("limit", "5")

	var raw []struct {
		HotelID   json.Number `json:"hotelId"`
		HotelName string      `json:"hotelName"`
		Stars     int         `json:"stars"`
		PriceFrom float64     `json:"priceFrom"`
		Currency  string      `json:"currency"`
	}
	if err := c.getJSON(ctx, "/cache.json", params, &raw); err != nil {
		return nil, fmt.Errorf("hotel price search: %w", err)
	}

	offers := make([]Offer, 0, len(raw))
	for _, h := range raw {
		name := strings.TrimSpace(h.HotelName)
		if name == "" {
			continue
		}
		currency := h.Currency
		if currency == "" {
			currency = "USD"
		}
		offers = append(offers, Offer{
			Name:        name,
			Stars:       h.Stars,
			PriceFrom:   h.PriceFrom,
			Currency:    currency,
			BookingLink: "https://www.hotellook.com/hotels/" + h.HotelID.String(),
		})
	}
	return offers, nil
}
