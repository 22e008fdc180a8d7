package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"runway_view/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	// ErrUnsupportedAirport is returned when the lookup service has no predictions for an airport
	ErrUnsupportedAirport = errors.New("airport not supported")
	// ErrNoForecast is returned when no forecast validity window is known for an airport
	ErrNoForecast = errors.New("no forecast available")
)

// Options configures a LookupClient
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	CacheSize int
	CacheTTL  time.Duration
}

// LookupClient talks to the airport lookup service
type LookupClient struct {
	client      *resty.Client
	suggestions *expirable.LRU[string, []models.AirportSuggestion]
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a lookup client for the service at opts.BaseURL
func New(opts Options) *LookupClient {
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.Retries)
	client.SetRetryWaitTime(200 * time.Millisecond)
	client.SetHeader("Accept", "application/json")

	return &LookupClient{
		client:      client,
		suggestions: expirable.NewLRU[string, []models.AirportSuggestion](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// SearchAirports returns the suggestions matching prefix.
// Results are cached per lower-cased prefix since the service matches case-insensitively.
func (c *LookupClient) SearchAirports(ctx context.Context, prefix string) ([]models.AirportSuggestion, error) {
	key := strings.ToLower(prefix)
	if cached, ok := c.suggestions.Get(key); ok {
		return cached, nil
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("prefix", prefix).
		Get("/airports-data/{prefix}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch airport suggestions: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("airports-data returned status %d", resp.StatusCode())
	}

	var suggestions []models.AirportSuggestion
	if err := json.Unmarshal(resp.Body(), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse airport suggestions: %w", err)
	}

	c.suggestions.Add(key, suggestions)
	return suggestions, nil
}

// LastTAFEndTime returns the forecast validity window of a destination airport
func (c *LookupClient) LastTAFEndTime(ctx context.Context, icao string) (*models.ForecastValidityWindow, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("icao", icao).
		Get("/last-taf-end-time/{icao}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast end time for %s: %w", icao, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", icao, ErrUnsupportedAirport)
	case http.StatusConflict:
		return nil, fmt.Errorf("%s: %w", icao, ErrNoForecast)
	default:
		var e errorResponse
		if json.Unmarshal(resp.Body(), &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("last-taf-end-time returned status %d: %s", resp.StatusCode(), e.Error)
		}
		return nil, fmt.Errorf("last-taf-end-time returned status %d", resp.StatusCode())
	}

	var window models.ForecastValidityWindow
	if err := json.Unmarshal(resp.Body(), &window); err != nil {
		return nil, fmt.Errorf("failed to parse forecast end time: %w", err)
	}

	return &window, nil
}
