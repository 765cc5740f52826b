// README: Visual Crossing timeline API client for day-level forecasts.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Summary is a one-day forecast for a location.
type Summary struct {
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	TempMaxC    float64 `json:"temp_max_c"`
	TempMinC    float64 `json:"temp_min_c"`
	PrecipMM    float64 `json:"precip_mm"`
}

// String renders the summary for chat replies.
func (s Summary) String() string {
	return fmt.Sprintf("Weather for %s on %s: %s, high %.1f°C, low %.1f°C, precipitation %.1f mm",
		s.Location, s.Date, s.Description, s.TempMaxC, s.TempMinC, s.PrecipMM)
}

// Client talks to the Visual Crossing timeline API.
type Client struct {
	key        string
	baseURL    string
	httpClient *http.Client
}

func NewClient(key string) *Client {
	return &Client{
		key:        key,
		baseURL:    "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Forecast fetches the day-level forecast for a location on a date.
func (c *Client) Forecast(ctx context.Context, location, date string) (*Summary, error) {
	if c.key == "" {
		return nil, fmt.Errorf("weather api not configured")
	}

	params := url.Values{}
	params.Set("key", c.key)
	params.Set("include", "days")
	params.Set("elements", "datetime,tempmax,tempmin,precip,description")
	params.Set("unitGroup", "metric")

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(location), url.PathEscape(date), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather error (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Days []struct {
			Datetime    string  `json:"datetime"`
			TempMax     float64 `json:"tempmax"`
			TempMin     float64 `json:"tempmin"`
			Precip      float64 `json:"precip"`
			Description string  `json:"description"`
		} `json:"days"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse weather response: %w", err)
	}
	if len(result.Days) == 0 {
		return nil, fmt.Errorf("no forecast days for %s on %s", location, date)
	}

	day := result.Days[0]
	return &Summary{
		Location:    location,
		Date:        day.Datetime,
		Description: day.Description,
		TempMaxC:    day.TempMax,
		TempMinC:    day.TempMin,
		PrecipMM:    day.Precip,
	}, nil
}
