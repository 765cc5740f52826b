// README: Amadeus self-service API client: OAuth token flow, city resolution, flight offers.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client talks to the Amadeus self-service REST API.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	log          *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates an Amadeus client. baseURL defaults to the free test
// environment when empty.
func NewClient(clientID, clientSecret, baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://test.api.amadeus.com"
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          log,
	}
}

func (c *Client) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	c.mu.Unlock()
	return nil
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	expired := time.Now().After(c.tokenExpiry)
	token := c.accessToken
	c.mu.Unlock()

	if expired || token == "" {
		if err := c.refreshToken(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		token = c.accessToken
		c.mu.Unlock()
	}
	return token, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, fmt.Errorf("amadeus not configured")
	}
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ResolveCity resolves a free-text city name to a location code. The fallback
// chain never fails: first exact CITY-typed match from the keyword search,
// else the first result, else the first three letters of the name uppercased.
func (c *Client) ResolveCity(ctx context.Context, cityName string) string {
	fallback := fallbackCode(cityName)

	body, err := c.get(ctx, "/v1/reference-data/locations?subType=CITY,AIRPORT&keyword="+url.QueryEscape(cityName))
	if err != nil {
		c.log.Warn("city lookup failed, using fallback code",
			zap.String("city", cityName), zap.String("code", fallback), zap.Error(err))
		return fallback
	}

	var result struct {
		Data []struct {
			SubType  string `json:"subType"`
			IataCode string `json:"iataCode"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil || len(result.Data) == 0 {
		return fallback
	}
	for _, loc := range result.Data {
		if loc.SubType == "CITY" && loc.IataCode != "" {
			return loc.IataCode
		}
	}
	if result.Data[0].IataCode != "" {
		return result.Data[0].IataCode
	}
	return fallback
}

// fallbackCode derives a 3-letter-style code from the city name itself.
func fallbackCode(cityName string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cityName), " ", "")
	if len(cleaned) > 3 {
		cleaned = cleaned[:3]
	}
	return strings.ToUpper(cleaned)
}

// Search queries flight offers between two location codes on a date.
// An empty result is not an error; errors indicate transport or auth failure.
func (c *Client) Search(ctx context.Context, originCode, destinationCode, date string) ([]Offer, error) {
	path := fmt.Sprintf(
		"/v2/shopping/flight-offers?originLocationCode=%s&destinationLocationCode=%s&departureDate=%s&adults=1&max=3&currencyCode=USD",
		url.QueryEscape(originCode), url.QueryEscape(destinationCode), url.QueryEscape(date))

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Itineraries []struct {
				Duration string `json:"duration"`
				Segments []struct {
					Departure struct {
						IataCode string `json:"iataCode"`
						At       string `json:"at"`
					} `json:"departure"`
					Arrival struct {
						IataCode string `json:"iataCode"`
						At       string `json:"at"`
					} `json:"arrival"`
				} `json:"segments"`
			} `json:"itineraries"`
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
			ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}

	offers := make([]Offer, 0, len(result.Data))
	for _, raw := range result.Data {
		if len(raw.Itineraries) == 0 || len(raw.Itineraries[0].Segments) == 0 {
			continue
		}
		itin := raw.Itineraries[0]
		first := itin.Segments[0]
		last := itin.Segments[len(itin.Segments)-1]

		airline := ""
		if len(raw.ValidatingAirlineCodes) > 0 {
			airline = raw.ValidatingAirlineCodes[0]
		}

		offers = append(offers, Offer{
			Airline:         airline,
			Price:           raw.Price.Total,
			Currency:        raw.Price.Currency,
			Duration:        strings.ToLower(strings.TrimPrefix(itin.Duration, "PT")),
			DepartsAt:       first.Departure.At,
			DepartsFrom:     first.Departure.IataCode,
			ArrivesAt:       last.Arrival.At,
			ArrivesTo:       last.Arrival.IataCode,
			Stops:           len(itin.Segments) - 1,
			BookingLink:     bookingLink(originCode, destinationCode, date),
			OriginCode:      originCode,
			DestinationCode: destinationCode,
		})
	}
	return offers, nil
}

func bookingLink(originCode, destinationCode, date string) string {
	return fmt.Sprintf("https://www.google.com/flights?hl=en#flt=%s.%s.%s;c:USD;e:1;sd:1;t:f",
		originCode, destinationCode, date)
}
