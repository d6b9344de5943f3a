package places

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	maxErrorBodyPreview = 800
	redactedValue       = "REDACTED"
)

// ErrUpstream indicates places provider failure.
var ErrUpstream = errors.New("[Places] error when trying to get response from places api")

// ErrMalformedResponse indicates a response body that could not be decoded.
var ErrMalformedResponse = errors.New("decode response body")

// UpstreamRequestError carries HTTP context for failed upstream calls.
type UpstreamRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *UpstreamRequestError) Error() string {
	parts := []string{ErrUpstream.Error()}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	method := strings.TrimSpace(e.Method)
	rawURL := strings.TrimSpace(e.URL)
	if method != "" || rawURL != "" {
		parts = append(parts, strings.TrimSpace(method+" "+rawURL))
	}
	if trimmed := compactBodyPreview(e.Body); trimmed != "" {
		parts = append(parts, fmt.Sprintf("body=%q", trimmed))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}
	return strings.Join(parts, "; ")
}

func (e *UpstreamRequestError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Cause}
}

// ProviderStatusError reports a well-formed response whose status is not a success.
type ProviderStatusError struct {
	Status  string
	Message string
}

func (e *ProviderStatusError) Error() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return fmt.Sprintf("%s; provider status=%s; message=%q", ErrUpstream.Error(), e.Status, msg)
	}
	return fmt.Sprintf("%s; provider status=%s", ErrUpstream.Error(), e.Status)
}

func (e *ProviderStatusError) Unwrap() error {
	return ErrUpstream
}

func compactBodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	body = strings.ReplaceAll(body, "\n", " ")
	body = strings.ReplaceAll(body, "\r", " ")
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxErrorBodyPreview {
		return body[:maxErrorBodyPreview] + "..."
	}
	return body
}

// redactURL hides the API key so it never reaches traces or error output.
func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Get("key") == "" {
		return rawURL
	}
	query.Set("key", redactedValue)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
