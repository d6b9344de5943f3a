package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mekedron/placetour/internal/domain"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent           = "placetour/1.0"
)

// ErrLocationLookup is returned when geocoding fails.
var ErrLocationLookup = errors.New("error when trying to get location")

// Client resolves addresses to coordinates.
type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
}

// Option applies Client options.
type Option func(*Client)

// WithBaseURL replaces the geocoder endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = baseURL
		}
	}
}

// WithLanguage sets the accept-language param.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(language)
	}
}

type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	value, err := ParseCoordinate(data)
	if err != nil {
		return err
	}
	*c = coordinate(value)
	return nil
}

// ParseCoordinate accepts a JSON number or a JSON string holding a number.
func ParseCoordinate(data []byte) (float64, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, fmt.Errorf("parse coordinate %q: %w", text, err)
		}
		return value, nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		return value, nil
	}

	return 0, fmt.Errorf("coordinate must be a string or number")
}

type nominatimResult struct {
	Lat coordinate `json:"lat"`
	Lon coordinate `json:"lon"`
}

// NewClient creates a location client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultNominatimURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get resolves an address to its best-ranked point using OSM Nominatim.
func (c *Client) Get(ctx context.Context, address string) (domain.GeoPoint, error) {
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if c.language != "" {
		query.Set("accept-language", c.language)
	}
	uri := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.GeoPoint{}, fmt.Errorf("%w: status %d", ErrLocationLookup, res.StatusCode)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	if len(payload) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: no match for %q", ErrLocationLookup, address)
	}
	return domain.GeoPoint{
		Lat: float64(payload[0].Lat),
		Lon: float64(payload[0].Lon),
	}, nil
}
