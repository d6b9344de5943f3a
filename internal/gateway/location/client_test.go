package location

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, responseBody string, statusCode int) *Client {
	t.Helper()
	client := NewClient(WithBaseURL("https://nominatim.test/search"), WithLanguage("en"))
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			query := req.URL.Query()
			if query.Get("format") != "json" {
				t.Fatalf("expected format=json, got %q", query.Get("format"))
			}
			if query.Get("limit") != "1" {
				t.Fatalf("expected limit=1, got %q", query.Get("limit"))
			}
			if query.Get("accept-language") != "en" {
				t.Fatalf("expected accept-language=en, got %q", query.Get("accept-language"))
			}
			if req.Header.Get("User-Agent") != userAgent {
				t.Fatalf("expected user agent %q, got %q", userAgent, req.Header.Get("User-Agent"))
			}
			return &http.Response{
				StatusCode: statusCode,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(responseBody)),
			}, nil
		}),
	}
	return client
}

func TestGetParsesStringCoordinates(t *testing.T) {
	client := newTestClient(t, `[{"lat":"60.1699","lon":"24.9384"}]`, http.StatusOK)
	point, err := client.Get(context.Background(), "Helsinki")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if math.Abs(point.Lat-60.1699) > 1e-9 {
		t.Fatalf("expected lat 60.1699, got %f", point.Lat)
	}
	if math.Abs(point.Lon-24.9384) > 1e-9 {
		t.Fatalf("expected lon 24.9384, got %f", point.Lon)
	}
}

func TestGetParsesNumericCoordinates(t *testing.T) {
	client := newTestClient(t, `[{"lat":59.437,"lon":24.7536}]`, http.StatusOK)
	point, err := client.Get(context.Background(), "Tallinn")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(point.Lat-59.437) > 1e-9 || math.Abs(point.Lon-24.7536) > 1e-9 {
		t.Fatalf("unexpected point %+v", point)
	}
}

func TestGetReturnsLookupErrorOnInvalidCoordinates(t *testing.T) {
	client := newTestClient(t, `[{"lat":"not-a-number","lon":"24.9384"}]`, http.StatusOK)
	_, err := client.Get(context.Background(), "Helsinki")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrLocationLookup) {
		t.Fatalf("expected ErrLocationLookup, got %v", err)
	}
}

func TestGetReturnsLookupErrorOnEmptyResult(t *testing.T) {
	client := newTestClient(t, `[]`, http.StatusOK)
	_, err := client.Get(context.Background(), "Nowhere")
	if !errors.Is(err, ErrLocationLookup) {
		t.Fatalf("expected ErrLocationLookup, got %v", err)
	}
}

func TestGetReturnsLookupErrorOnUpstreamStatus(t *testing.T) {
	client := newTestClient(t, `{}`, http.StatusServiceUnavailable)
	_, err := client.Get(context.Background(), "Helsinki")
	if !errors.Is(err, ErrLocationLookup) {
		t.Fatalf("expected ErrLocationLookup, got %v", err)
	}
}

func TestParseCoordinate(t *testing.T) {
	if v, err := ParseCoordinate([]byte(`" 12.5 "`)); err != nil || v != 12.5 {
		t.Fatalf("expected 12.5, got %f (%v)", v, err)
	}
	if _, err := ParseCoordinate([]byte(`true`)); err == nil {
		t.Fatal("expected error for boolean coordinate")
	}
}
