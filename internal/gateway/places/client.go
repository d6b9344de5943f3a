package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mekedron/placetour/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultNearbySearchURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	defaultPhotoURL        = "https://maps.googleapis.com/maps/api/place/photo"
	defaultPhotoMaxWidth   = 200
	maxPhotoBytes          = 10 << 20
	userAgent              = "placetour/1.0"
)

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoints stores upstream endpoint urls.
type Endpoints struct {
	NearbySearch string
	Photo        string
}

// Client queries the places provider.
type Client struct {
	httpClient     HTTPClient
	endpoints      Endpoints
	apiKey         string
	language       string
	userAgent      string
	limiter        *rate.Limiter
	verboseOutput  io.Writer
	verboseOutputM sync.RWMutex
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints replaces default endpoint set. Empty fields keep their defaults.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		if strings.TrimSpace(endpoints.NearbySearch) != "" {
			c.endpoints.NearbySearch = endpoints.NearbySearch
		}
		if strings.TrimSpace(endpoints.Photo) != "" {
			c.endpoints.Photo = endpoints.Photo
		}
	}
}

// WithAPIKey sets the provider access credential.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithLanguage sets the default response language.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(language)
	}
}

// WithUserAgent replaces the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRequestMinInterval limits request burst by enforcing minimum delay between upstream calls.
func WithRequestMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithVerboseOutput enables per-request trace output for upstream HTTP calls.
func WithVerboseOutput(out io.Writer) Option {
	return func(c *Client) {
		c.SetVerboseOutput(out)
	}
}

// NewClient creates a production places gateway client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		endpoints: Endpoints{
			NearbySearch: defaultNearbySearchURL,
			Photo:        defaultPhotoURL,
		},
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVerboseOutput sets destination for verbose HTTP request trace lines.
func (c *Client) SetVerboseOutput(out io.Writer) {
	c.verboseOutputM.Lock()
	c.verboseOutput = out
	c.verboseOutputM.Unlock()
}

// NearbySearch returns the ranked places around query.Center.
func (c *Client) NearbySearch(ctx context.Context, query NearbyQuery) (NearbyPage, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", query.Center.Lat, query.Center.Lon))
	params.Set("radius", strconv.FormatFloat(query.RadiusMeters, 'f', -1, 64))
	rankBy := strings.TrimSpace(query.RankBy)
	if rankBy == "" {
		rankBy = RankByProminence
	}
	params.Set("rankby", rankBy)
	language := strings.TrimSpace(query.Language)
	if language == "" {
		language = c.language
	}
	if language != "" {
		params.Set("language", language)
	}
	params.Set("key", c.apiKey)

	rawURL := c.endpoints.NearbySearch + "?" + params.Encode()
	rawResponse, statusCode, err := c.fetch(ctx, rawURL)
	if err != nil {
		return NearbyPage{}, err
	}

	var page NearbyPage
	if err := json.Unmarshal(rawResponse, &page); err != nil {
		return NearbyPage{}, &UpstreamRequestError{
			Method:     http.MethodGet,
			URL:        redactURL(rawURL),
			StatusCode: statusCode,
			Body:       string(rawResponse),
			Cause:      fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	switch strings.TrimSpace(page.Status) {
	case StatusOK, StatusZeroResults:
		return page, nil
	default:
		return NearbyPage{}, &ProviderStatusError{Status: page.Status, Message: page.ErrorMessage}
	}
}

// Photo downloads the photo behind reference scaled to at most maxWidth pixels.
func (c *Client) Photo(ctx context.Context, reference string, maxWidth int) (domain.Image, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return domain.Image{}, fmt.Errorf("photo reference is required")
	}
	if maxWidth <= 0 {
		maxWidth = defaultPhotoMaxWidth
	}
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photoreference", reference)
	params.Set("key", c.apiKey)

	rawURL := c.endpoints.Photo + "?" + params.Encode()
	res, err := c.doRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return domain.Image{}, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	payload, err := readResponseBody(res, http.MethodGet, redactURL(rawURL), maxPhotoBytes)
	if err != nil {
		return domain.Image{}, err
	}
	return decodeImage(payload, res.Header.Get("Content-Type"))
}

func decodeImage(payload []byte, contentType string) (domain.Image, error) {
	if len(payload) == 0 {
		return domain.Image{}, fmt.Errorf("%w: empty photo body", ErrUpstream)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: decode photo: %v", ErrUpstream, err)
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = http.DetectContentType(payload)
	}
	return domain.Image{
		Data:        payload,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	res, err := c.doRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	payload, err := readResponseBody(res, http.MethodGet, redactURL(rawURL), 0)
	if err != nil {
		return nil, res.StatusCode, err
	}
	return payload, res.StatusCode, nil
}

func (c *Client) doRequest(ctx context.Context, method string, rawURL string) (*http.Response, error) {
	traceURL := redactURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if err := c.waitForRequestSlot(ctx); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	c.traceRequestStart(method, traceURL)

	res, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = traceURL
		}
		upstreamErr := &UpstreamRequestError{
			Method: method,
			URL:    traceURL,
			Cause:  err,
		}
		c.traceRequestDone(method, traceURL, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}
	c.traceRequestDone(method, traceURL, res.StatusCode, startedAt, nil)
	return res, nil
}

func (c *Client) traceRequestStart(method, rawURL string) {
	c.tracef("[http] -> %s %s", method, rawURL)
}

func (c *Client) traceRequestDone(method, rawURL string, statusCode int, startedAt time.Time, reqErr error) {
	duration := time.Since(startedAt).Round(time.Millisecond)
	if reqErr != nil {
		c.tracef("[http] <- %s %s error=%v duration=%s", method, rawURL, reqErr, duration)
		return
	}
	c.tracef("[http] <- %s %s status=%d duration=%s", method, rawURL, statusCode, duration)
}

func (c *Client) waitForRequestSlot(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) tracef(format string, args ...any) {
	c.verboseOutputM.RLock()
	out := c.verboseOutput
	c.verboseOutputM.RUnlock()
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(out, format+"\n", args...)
}

func readResponseBody(res *http.Response, method string, rawURL string, limit int64) ([]byte, error) {
	var body io.Reader = res.Body
	if limit > 0 {
		body = io.LimitReader(res.Body, limit+1)
	}
	rawResponse, err := io.ReadAll(body)
	if err != nil {
		return nil, &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Cause:      fmt.Errorf("read response body: %w", err),
		}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
		}
	}
	if limit > 0 && int64(len(rawResponse)) > limit {
		return nil, &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Cause:      fmt.Errorf("response body exceeds %d bytes", limit),
		}
	}
	return rawResponse, nil
}
